package idhash

import (
	"strings"
	"testing"
)

func TestComputeShareID(t *testing.T) {
	a := ComputeShareID("So11111111111111111111111111111111111111112")
	b := ComputeShareID("So11111111111111111111111111111111111111112")
	if a != b {
		t.Errorf("ComputeShareID not deterministic: %s != %s", a, b)
	}
	if a == "" || len(a) > 11 {
		t.Errorf("unexpected share id %q", a)
	}
	if strings.ContainsAny(a, "0OIl") {
		t.Errorf("share id %q is not base58", a)
	}

	other := ComputeShareID("11111111111111111111111111111111")
	if a == other {
		t.Error("different addresses should produce different share ids")
	}
}

func TestComputeRenderETag(t *testing.T) {
	base := ComputeRenderETag("tier", "svg", "addr", 0)
	if !strings.HasPrefix(base, `"`) || !strings.HasSuffix(base, `"`) {
		t.Errorf("etag %s is not quoted", base)
	}
	if base != ComputeRenderETag("tier", "svg", "addr", 0) {
		t.Error("etag not deterministic")
	}
	if base == ComputeRenderETag("classic", "svg", "addr", 0) {
		t.Error("different renderer should produce different etag")
	}
	if base == ComputeRenderETag("tier", "png", "addr", 0) {
		t.Error("different format should produce different etag")
	}
	if base == ComputeRenderETag("tier", "svg", "addr", 10000) {
		t.Error("different balance should produce different etag")
	}
}
