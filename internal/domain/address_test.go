package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateAddress(t *testing.T) {
	tests := []struct {
		name    string
		address string
		wantErr bool
	}{
		{name: "wrapped SOL", address: "So11111111111111111111111111111111111111112"},
		{name: "32 chars", address: "11111111111111111111111111111111"},
		{name: "44 chars", address: "DRpbCBMxVnDK7maPM5tGv6MvB3v1sRMC86PZ8okm21hy"},
		{name: "31 chars", address: strings.Repeat("1", 31), wantErr: true},
		{name: "45 chars", address: strings.Repeat("1", 45), wantErr: true},
		{name: "empty", address: "", wantErr: true},
		{name: "contains zero", address: "0" + strings.Repeat("1", 33), wantErr: true},
		{name: "contains O", address: "O" + strings.Repeat("1", 33), wantErr: true},
		{name: "contains I", address: "I" + strings.Repeat("1", 33), wantErr: true},
		{name: "contains l", address: "l" + strings.Repeat("1", 33), wantErr: true},
		{name: "contains space", address: " " + strings.Repeat("1", 33), wantErr: true},
		{name: "hex-like 0x", address: "0x" + strings.Repeat("a", 40), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAddress(tt.address)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidAddress) {
					t.Errorf("ValidateAddress(%q) = %v, want ErrInvalidAddress", tt.address, err)
				}
				return
			}
			if err != nil {
				t.Errorf("ValidateAddress(%q) = %v, want nil", tt.address, err)
			}
		})
	}
}

func TestKindOf(t *testing.T) {
	// 32 zero bytes decode to the identity point's y-coordinate 0, which is on-curve.
	if got := KindOf("11111111111111111111111111111111"); got != AddressKindWallet {
		t.Errorf("KindOf(system program) = %s, want %s", got, AddressKindWallet)
	}
	// Too short to be a public key.
	if got := KindOf("1111"); got != AddressKindUnknown {
		t.Errorf("KindOf(short) = %s, want %s", got, AddressKindUnknown)
	}
	if got := KindOf("not-base58-0OIl"); got != AddressKindUnknown {
		t.Errorf("KindOf(invalid) = %s, want %s", got, AddressKindUnknown)
	}
}

func TestBackgroundUnion(t *testing.T) {
	var bg Background = SolidBackground{Color: "#112233"}
	if bg.Mode() != BackgroundSolid || len(bg.Colors()) != 1 {
		t.Errorf("solid background: mode=%s colors=%v", bg.Mode(), bg.Colors())
	}

	bg = GradientBackground{Color1: "#112233", Color2: "#445566"}
	if bg.Mode() != BackgroundGradient {
		t.Errorf("gradient mode = %s", bg.Mode())
	}
	if got := bg.Colors(); len(got) != 2 || got[0] != "#112233" || got[1] != "#445566" {
		t.Errorf("gradient colors = %v", got)
	}
}

func TestIdentity_AvatarIndex(t *testing.T) {
	for gi := 0; gi < 12; gi++ {
		id := &Identity{GradientIndex: gi}
		if got := id.AvatarIndex(); got != gi%6 {
			t.Errorf("AvatarIndex(%d) = %d, want %d", gi, got, gi%6)
		}
	}
}
