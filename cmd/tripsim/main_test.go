package main

import "testing"

func TestParsePoint(t *testing.T) {
	p, err := parsePoint(" -1.5,36.75 ")
	if err != nil {
		t.Fatal(err)
	}
	if p.Lat != -1.5 || p.Lon != 36.75 {
		t.Fatalf("p = %+v", p)
	}
	if _, err := parsePoint("nairobi"); err == nil {
		t.Fatal("expected error")
	}
}
