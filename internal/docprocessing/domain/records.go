package domain

// Record is the structured data extracted from one document.
type Record interface {
	DocumentType() DocumentType
	// SubjectID is the identifier of the person or organisation the
	// document belongs to, or nil when it was not read.
	SubjectID() *string
}

// MRZ is the machine-readable zone of an identity card as read.
type MRZ struct {
	Raw            string  `json:"raw"`
	DocumentNumber *string `json:"document_number"`
	Surname        *string `json:"surname"`
	Name           *string `json:"name"`
	Nationality    *string `json:"nationality"`
	// BirthDate and ExpiryDate keep the MRZ YYMMDD form.
	BirthDate  *string `json:"birth_date"`
	ExpiryDate *string `json:"expiry_date"`
	Sex        *string `json:"sex"`
}

// IdentityRecord holds the fields of a DNI or NIE card. Dates are ISO
// YYYY-MM-DD.
type IdentityRecord struct {
	NumeroDocumento *string `json:"numero_documento"`
	TipoNumero      *string `json:"tipo_numero"`
	Nombre          *string `json:"nombre"`
	Apellidos       *string `json:"apellidos"`
	NombreCompleto  *string `json:"nombre_completo"`
	Sexo            *string `json:"sexo"`
	Nacionalidad    *string `json:"nacionalidad"`
	FechaNacimiento *string `json:"fecha_nacimiento"`
	FechaExpedicion *string `json:"fecha_expedicion"`
	FechaCaducidad  *string `json:"fecha_caducidad"`
	Domicilio       *string `json:"domicilio"`
	Calle           *string `json:"calle"`
	Numero          *string `json:"numero"`
	PisoPuerta      *string `json:"piso_puerta"`
	Municipio       *string `json:"municipio"`
	Provincia       *string `json:"provincia"`
	CodigoPostal    *string `json:"codigo_postal"`
	NombrePadre     *string `json:"nombre_padre"`
	NombreMadre     *string `json:"nombre_madre"`
	LugarNacimiento *string `json:"lugar_nacimiento"`
	SoporteNumero   *string `json:"soporte_numero"`
	MRZ             *MRZ    `json:"mrz"`
}

func (r *IdentityRecord) DocumentType() DocumentType { return DocumentTypeDNI }
func (r *IdentityRecord) SubjectID() *string         { return r.NumeroDocumento }

// TaxCardRecord holds the fields of a tax identification card.
type TaxCardRecord struct {
	NumeroNIF         *string `json:"numero_nif"`
	TipoNIF           *string `json:"tipo_nif"`
	Denominacion      *string `json:"denominacion"`
	RazonSocial       *string `json:"razon_social"`
	AnagramaComercial *string `json:"anagrama_comercial"`

	DomicilioSocial             *string `json:"domicilio_social"`
	DomicilioSocialCalle        *string `json:"domicilio_social_calle"`
	DomicilioSocialNumero       *string `json:"domicilio_social_numero"`
	DomicilioSocialPisoPuerta   *string `json:"domicilio_social_piso_puerta"`
	DomicilioSocialMunicipio    *string `json:"domicilio_social_municipio"`
	DomicilioSocialProvincia    *string `json:"domicilio_social_provincia"`
	DomicilioSocialCodigoPostal *string `json:"domicilio_social_codigo_postal"`

	DomicilioFiscal             *string `json:"domicilio_fiscal"`
	DomicilioFiscalCalle        *string `json:"domicilio_fiscal_calle"`
	DomicilioFiscalNumero       *string `json:"domicilio_fiscal_numero"`
	DomicilioFiscalPisoPuerta   *string `json:"domicilio_fiscal_piso_puerta"`
	DomicilioFiscalMunicipio    *string `json:"domicilio_fiscal_municipio"`
	DomicilioFiscalProvincia    *string `json:"domicilio_fiscal_provincia"`
	DomicilioFiscalCodigoPostal *string `json:"domicilio_fiscal_codigo_postal"`

	FechaNIFDefinitivo   *string `json:"fecha_nif_definitivo"`
	FechaExpedicion      *string `json:"fecha_expedicion"`
	AdministracionAEAT   *string `json:"administracion_aeat"`
	CodigoAdministracion *string `json:"codigo_administracion"`
	NombreAdministracion *string `json:"nombre_administracion"`
	CodigoElectronico    *string `json:"codigo_electronico"`
}

func (r *TaxCardRecord) DocumentType() DocumentType { return DocumentTypeNIF }
func (r *TaxCardRecord) SubjectID() *string         { return r.NumeroNIF }

// PermitRecord holds the fields of a vehicle circulation permit.
type PermitRecord struct {
	NumeroPermiso             *string  `json:"numero_permiso"`
	Matricula                 *string  `json:"matricula"`
	NumeroBastidor            *string  `json:"numero_bastidor"`
	Marca                     *string  `json:"marca"`
	Modelo                    *string  `json:"modelo"`
	VarianteVersion           *string  `json:"variante_version"`
	Categoria                 *string  `json:"categoria"`
	FechaMatriculacion        *string  `json:"fecha_matriculacion"`
	FechaPrimeraMatriculacion *string  `json:"fecha_primera_matriculacion"`
	FechaExpedicion           *string  `json:"fecha_expedicion"`
	TitularNombre             *string  `json:"titular_nombre"`
	TitularNIF                *string  `json:"titular_nif"`
	Domicilio                 *string  `json:"domicilio"`
	Municipio                 *string  `json:"municipio"`
	Provincia                 *string  `json:"provincia"`
	CodigoPostal              *string  `json:"codigo_postal"`
	Servicio                  *string  `json:"servicio"`
	CilindradaCC              *int     `json:"cilindrada_cc"`
	PotenciaKW                *float64 `json:"potencia_kw"`
	PotenciaFiscal            *float64 `json:"potencia_fiscal"`
	Combustible               *string  `json:"combustible"`
	EmissionsCO2              *float64 `json:"emissions_co2"`
	MasaMaxima                *int     `json:"masa_maxima"`
	MasaOrdenMarcha           *int     `json:"masa_orden_marcha"`
	Plazas                    *int     `json:"plazas"`
	TipoVehiculo              *string  `json:"tipo_vehiculo"`
	FechaUltimaTransferencia  *string  `json:"fecha_ultima_transferencia"`
	ProximaITV                *string  `json:"proxima_itv"`
	Observaciones             *string  `json:"observaciones"`
}

func (r *PermitRecord) DocumentType() DocumentType { return DocumentTypePermit }
func (r *PermitRecord) SubjectID() *string         { return r.Matricula }

// Present reports whether an optional string field holds a non-empty value.
func Present(s *string) bool { return s != nil && *s != "" }

// StrPtr returns a pointer to s.
func StrPtr(s string) *string { return &s }
