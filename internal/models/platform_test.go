package models

import "testing"

func TestParsePlatform(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    Platform
		wantErr bool
	}{
		{name: "lower", in: "uber", want: PlatformUber},
		{name: "mixed case and spaces", in: "  Namma_Yatri ", want: PlatformNammaYatri},
		{name: "unknown", in: "lyft", wantErr: true},
		{name: "empty", in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePlatform(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParsePlatform(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParsePlatform(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeVehicleNumber(t *testing.T) {
	for in, want := range map[string]string{
		"ka01ab1234":    "KA01AB1234",
		" Ka 01 ab 12 ": "KA 01 AB 12",
		"MH12":          "MH12",
	} {
		if got := NormalizeVehicleNumber(in); got != want {
			t.Errorf("NormalizeVehicleNumber(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestProfileDisplayName(t *testing.T) {
	name := "ravi"
	empty := ""
	tests := []struct {
		name string
		p    Profile
		want string
	}{
		{name: "username", p: Profile{Email: "r@example.com", Username: &name}, want: "ravi"},
		{name: "empty username", p: Profile{Email: "asha@example.com", Username: &empty}, want: "asha"},
		{name: "no username", p: Profile{Email: "kiran@example.com"}, want: "kiran"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.p.DisplayName(); got != tt.want {
				t.Errorf("DisplayName() = %q, want %q", got, tt.want)
			}
		})
	}
}
