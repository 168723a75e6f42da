package normalize

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		want   string
		wantOK bool
	}{
		{
			name: "plain message unchanged",
			raw:  "POCSAG1200: Address: 555123 Function: 0 Alpha: Brand i byggnad",
			want: "POCSAG1200: Address: 555123 Function: 0 Alpha: Brand i byggnad",

			wantOK: true,
		},
		{
			name:   "swedish substitution",
			raw:    "Larm p} Storgatan, brand p}g}r i k|ket",
			want:   "Larm på Storgatan, brand pågår i köket",
			wantOK: true,
		},
		{
			name:   "uppercase swedish substitution",
			raw:    `Brand p]ven [NG \STERG]RD`,
			want:   "Brand pÅven ÄNG ÖSTERGÅRD",
			wantOK: true,
		},
		{
			name:   "control tokens become spaces",
			raw:    "Alpha:<LF>Brand<NUL>i<CR>byggnad",
			want:   "Alpha: Brand i byggnad",
			wantOK: true,
		},
		{
			name:   "eot token with inner spaces",
			raw:    "larm< EOT >slut",
			want:   "larm slut",
			wantOK: true,
		},
		{
			name:   "raw control bytes stripped",
			raw:    "Brand\x01i\x1fbyggnad\x7f",
			want:   "Brand i byggnad",
			wantOK: true,
		},
		{
			name:   "whitespace collapsed and trimmed",
			raw:    "  Brand \t   i    byggnad  ",
			want:   "Brand i byggnad",
			wantOK: true,
		},
		{
			name:   "empty input",
			raw:    "",
			wantOK: false,
		},
		{
			name:   "whitespace only",
			raw:    "   \t  ",
			wantOK: false,
		},
		{
			name:   "control tokens and whitespace only",
			raw:    " <LF> <NUL>  <ESC> ",
			wantOK: false,
		},
		{
			name:   "raw control bytes only",
			raw:    "\x00\x1f\x7f",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Normalize(tt.raw)
			if ok != tt.wantOK {
				t.Fatalf("Normalize(%q) ok = %v, want %v", tt.raw, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestNormalizeRepairsMojibake(t *testing.T) {
	// "Fönster" decoded as Latin-1 instead of UTF-8 becomes "FÃ¶nster".
	got, ok := Normalize("FÃ¶nster krossat")
	if !ok {
		t.Fatal("expected a message")
	}
	if got != "Fönster krossat" {
		t.Errorf("got %q, want %q", got, "Fönster krossat")
	}
}

func TestNormalizeLeavesValidSwedishAlone(t *testing.T) {
	// Already-correct åäö must survive the repair step untouched.
	got, ok := Normalize("Brand pågår i Örebro")
	if !ok {
		t.Fatal("expected a message")
	}
	if got != "Brand pågår i Örebro" {
		t.Errorf("got %q, want %q", got, "Brand pågår i Örebro")
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"POCSAG1200: Address: 555123 Alpha:<LF>Brand p}g}r  i k|ket",
		"Larm p] Storgatan \x01 <NUL> 12",
		"plain ascii text",
	}
	for _, raw := range inputs {
		once, ok := Normalize(raw)
		if !ok {
			t.Fatalf("Normalize(%q) returned absent", raw)
		}
		twice, ok := Normalize(once)
		if !ok {
			t.Fatalf("Normalize(%q) returned absent on second pass", once)
		}
		if twice != once {
			t.Errorf("not idempotent: first %q, second %q", once, twice)
		}
	}
}
