package cmd

import "testing"

func TestValidateAddr(t *testing.T) {
	tests := []struct {
		addr    string
		wantErr bool
	}{
		{"127.0.0.1:3400", false},
		{"localhost:8080", false},
		{":8080", false},
		{"0.0.0.0:0", false},
		{"example.internal:9000", false},
		{"no-port", true},
		{"127.0.0.1:", true},
		{"127.0.0.1:abc", true},
		{"127.0.0.1:70000", true},
		{"bad host:8080", true},
	}

	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			err := validateAddr(tt.addr)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateAddr(%q) error = %v, wantErr %v", tt.addr, err, tt.wantErr)
			}
		})
	}
}
