package textutil

import "testing"

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Almacén Natural":     "almacen-natural",
		"  Frutos   secos ":   "frutos-secos",
		"Panadería & Dulces!": "panaderia-dulces",
		"":                    "",
	}
	for input, want := range cases {
		if got := Slugify(input); got != want {
			t.Fatalf("Slugify(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestFold(t *testing.T) {
	if got := Fold(" Azúcar MASCABO "); got != "azucar mascabo" {
		t.Fatalf("unexpected fold %q", got)
	}
	if got := Fold("Ñandú"); got != "nandu" {
		t.Fatalf("unexpected fold %q", got)
	}
}

func TestStripMarkup(t *testing.T) {
	if got := StripMarkup(`<b>Timbre</b> <script>alert(1)</script>roto`); got != "Timbre roto" {
		t.Fatalf("unexpected %q", got)
	}
	if got := StripMarkup("Pan & manteca"); got != "Pan & manteca" {
		t.Fatalf("expected ampersand preserved, got %q", got)
	}
}

func TestDigits(t *testing.T) {
	if got := Digits("+54 9 (3456) 12-3456"); got != "5493456123456" {
		t.Fatalf("unexpected %q", got)
	}
}
