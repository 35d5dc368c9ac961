package ocr

import "testing"

func TestSniffImage(t *testing.T) {
	tests := []struct {
		name   string
		data   []byte
		want   string
		wantOK bool
	}{
		{"jpeg", []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}, MimeJPEG, true},
		{"png", []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), MimePNG, true},
		{"webp", []byte("RIFF\x24\x00\x00\x00WEBPVP8 \x18\x00\x00\x00"), MimeWEBP, true},
		{"pdf", []byte("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n"), "application/pdf", false},
		{"empty", nil, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SniffImage(tt.data)
			if ok != tt.wantOK {
				t.Fatalf("SniffImage() ok = %v, want %v (detected %q)", ok, tt.wantOK, got)
			}
			if got != tt.want {
				t.Errorf("SniffImage() = %q, want %q", got, tt.want)
			}
		})
	}
}
