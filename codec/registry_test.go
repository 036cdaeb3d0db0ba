package codec_test

import (
	"testing"

	"github.com/kelaci/go-jxl-codec/codec"
	_ "github.com/kelaci/go-jxl-codec/jxl"
)

func TestCodecRegistry(t *testing.T) {
	tests := []struct {
		name      string
		key       string
		wantFound bool
		wantMIME  string
		wantName  string
	}{
		{
			name:      "Get jxl by MIME type",
			key:       "image/jxl",
			wantFound: true,
			wantMIME:  "image/jxl",
			wantName:  "jxl",
		},
		{
			name:      "Get jxl by name",
			key:       "jxl",
			wantFound: true,
			wantMIME:  "image/jxl",
			wantName:  "jxl",
		},
		{
			name:      "Get non-existent codec",
			key:       "image/png",
			wantFound: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := codec.Get(tt.key)

			if tt.wantFound {
				if err != nil {
					t.Errorf("Get(%q) unexpected error: %v", tt.key, err)
					return
				}
				if c == nil {
					t.Errorf("Get(%q) returned nil codec", tt.key)
					return
				}
				if c.MIME() != tt.wantMIME {
					t.Errorf("Get(%q).MIME() = %q, want %q", tt.key, c.MIME(), tt.wantMIME)
				}
				if c.Name() != tt.wantName {
					t.Errorf("Get(%q).Name() = %q, want %q", tt.key, c.Name(), tt.wantName)
				}
			} else {
				if err == nil {
					t.Errorf("Get(%q) expected error, got nil", tt.key)
				}
				if err != codec.ErrCodecNotFound {
					t.Errorf("Get(%q) error = %v, want %v", tt.key, err, codec.ErrCodecNotFound)
				}
			}
		})
	}
}

func TestListCodecs(t *testing.T) {
	codecs := codec.List()

	if len(codecs) < 1 {
		t.Fatalf("List() returned %d codecs, want at least 1", len(codecs))
	}

	found := false
	for _, c := range codecs {
		if c.MIME() == "image/jxl" {
			found = true
			if c.Name() != "jxl" {
				t.Errorf("JPEG XL codec name = %q, want %q", c.Name(), "jxl")
			}
		}
	}
	if !found {
		t.Error("List() did not include the JPEG XL codec")
	}
}

func TestBaseOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		opts    codec.BaseOptions
		wantErr bool
	}{
		{"default", codec.BaseOptions{}, false},
		{"max quality", codec.BaseOptions{Quality: 100}, false},
		{"negative quality", codec.BaseOptions{Quality: -1}, true},
		{"excess quality", codec.BaseOptions{Quality: 101}, true},
		{"lossless ignores quality", codec.BaseOptions{Quality: 50, Lossless: true}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
