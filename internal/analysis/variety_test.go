package analysis

import (
	"reflect"
	"testing"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		want string
		ok   bool
	}{
		{"山形県産 つや姫 5kg", "つや姫", true},
		{"はえぬき 10kg", "はえぬき", true},
		// catalog order wins over position in the name
		{"はえぬき・つや姫 食べ比べ", "つや姫", true},
		{"もち米 1kg", "", false},
	}
	for _, tc := range cases {
		got, ok := Classify(tc.name)
		if got != tc.want || ok != tc.ok {
			t.Errorf("Classify(%q) = %q,%v want %q,%v", tc.name, got, ok, tc.want, tc.ok)
		}
	}
}

func TestClassifyAll(t *testing.T) {
	got := ClassifyAll("各1kgひとめぼれはえぬきつや姫計3kg")
	want := []string{"つや姫", "はえぬき", "ひとめぼれ"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ClassifyAll = %v, want %v", got, want)
	}
	if got := ClassifyAll("無洗米"); got != nil {
		t.Fatalf("expected no match, got %v", got)
	}
}
