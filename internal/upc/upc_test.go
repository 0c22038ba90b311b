package upc

import "testing"

func TestExtract(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "separated upc-a",
			text: "UPC 0-28400-43330-3 please",
			want: []string{"028400433303"},
		},
		{
			name: "bare twelve digits",
			text: "what is 028400433303?",
			want: []string{"028400433303"},
		},
		{
			name: "eight digit upc-e",
			text: "check 01234565 for me",
			want: []string{"01234565"},
		},
		{
			name: "twelve digit ranked before eight",
			text: "is 01234565 the same as 028400433303?",
			want: []string{"028400433303", "01234565"},
		},
		{
			name: "thirteen digit ean ranked before eight",
			text: "codes 0123456789012 and 01234565",
			want: []string{"0123456789012", "01234565"},
		},
		{
			name: "no candidates",
			text: "is it gluten free?",
			want: nil,
		},
		{
			name: "short runs ignored",
			text: "call me at 555-0199",
			want: nil,
		},
		{
			name: "too long run ignored",
			text: "order 123456789012345678",
			want: nil,
		},
		{
			name: "duplicates collapsed",
			text: "028400433303 twice 028400433303",
			want: []string{"028400433303"},
		},
		{
			name: "space separated",
			text: "0 28400 43330 3",
			want: []string{"028400433303"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(tt.text)
			if len(got) != len(tt.want) {
				t.Fatalf("Extract(%q) = %v, want %v", tt.text, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Extract(%q)[%d] = %q, want %q", tt.text, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestValidateUPCA(t *testing.T) {
	tests := []struct {
		name       string
		code       string
		valid      bool
		reason     Reason
		normalized string
	}{
		{
			name:       "valid code",
			code:       "028400433303",
			valid:      true,
			reason:     ReasonOK,
			normalized: "028400433303",
		},
		{
			name:       "valid with separators",
			code:       "0-28400-43330-3",
			valid:      true,
			reason:     ReasonOK,
			normalized: "028400433303",
		},
		{
			name:   "checksum mismatch",
			code:   "028400433304",
			valid:  false,
			reason: ReasonChecksumMismatch,
		},
		{
			name:   "too short",
			code:   "12345678",
			valid:  false,
			reason: ReasonInvalidLength,
		},
		{
			name:   "too long",
			code:   "1234567890123",
			valid:  false,
			reason: ReasonInvalidLength,
		},
		{
			name:   "empty input",
			code:   "",
			valid:  false,
			reason: ReasonInvalidLength,
		},
		{
			name:   "non numeric",
			code:   "not a upc at all",
			valid:  false,
			reason: ReasonInvalidLength,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidateUPCA(tt.code)
			if got.Valid != tt.valid {
				t.Errorf("ValidateUPCA(%q).Valid = %v, want %v", tt.code, got.Valid, tt.valid)
			}
			if got.Reason != tt.reason {
				t.Errorf("ValidateUPCA(%q).Reason = %q, want %q", tt.code, got.Reason, tt.reason)
			}
			if got.Normalized != tt.normalized {
				t.Errorf("ValidateUPCA(%q).Normalized = %q, want %q", tt.code, got.Normalized, tt.normalized)
			}
		})
	}
}

// TestValidateUPCAChecksumExhaustive verifies that for a fixed 11-digit
// prefix, exactly one check digit is accepted and it matches the computed one.
func TestValidateUPCAChecksumExhaustive(t *testing.T) {
	prefix := "02840043330"
	validCount := 0
	for d := byte('0'); d <= '9'; d++ {
		res := ValidateUPCA(prefix + string(d))
		if res.Valid {
			validCount++
			if d != checkDigit(prefix) {
				t.Errorf("accepted check digit %c, want %c", d, checkDigit(prefix))
			}
		} else if res.Reason != ReasonChecksumMismatch {
			t.Errorf("rejected %c with reason %q, want %q", d, res.Reason, ReasonChecksumMismatch)
		}
	}
	if validCount != 1 {
		t.Errorf("accepted %d check digits, want exactly 1", validCount)
	}
}

func TestValidateUPCAExpectedDigit(t *testing.T) {
	got := ValidateUPCA("028400433301")
	if got.Valid {
		t.Fatal("ValidateUPCA accepted a wrong check digit")
	}
	if got.Expected != '3' {
		t.Errorf("Expected = %c, want 3", got.Expected)
	}
}

func TestComplete(t *testing.T) {
	tests := []struct {
		name    string
		partial string
		want    string
		wantErr bool
	}{
		{
			name:    "eleven digits",
			partial: "02840043330",
			want:    "028400433303",
		},
		{
			name:    "twelve digits recomputed",
			partial: "028400433309",
			want:    "028400433303",
		},
		{
			name:    "short input padded",
			partial: "43330",
			want:    "000000433303",
		},
		{
			name:    "separators tolerated",
			partial: "0-28400-43330",
			want:    "028400433303",
		},
		{
			name:    "too long",
			partial: "1234567890123",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Complete(tt.partial)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Complete(%q) error = nil, want error", tt.partial)
				}
				return
			}
			if err != nil {
				t.Fatalf("Complete(%q) error = %v", tt.partial, err)
			}
			if got != tt.want {
				t.Errorf("Complete(%q) = %q, want %q", tt.partial, got, tt.want)
			}
			// Completion must always validate.
			if res := ValidateUPCA(got); !res.Valid {
				t.Errorf("Complete(%q) = %q does not validate: %q", tt.partial, got, res.Reason)
			}
		})
	}
}
