package analysis

import "testing"

func TestResolve(t *testing.T) {
	cases := []struct {
		header []string
		want   Schema
	}{
		{[]string{"日付", "数量"}, Schema{Kind: SchemaUnusable}},
		{[]string{"商品名", "数量", "分量"}, Schema{Kind: SchemaNameAmount, HasQuantity: true}},
		{[]string{"分量", "商品名"}, Schema{Kind: SchemaNameAmount}},
		{[]string{"商品名", "数量"}, Schema{Kind: SchemaNameQuantity, HasQuantity: true}},
		{[]string{"商品名", "単価"}, Schema{Kind: SchemaNameOnly}},
		{nil, Schema{Kind: SchemaUnusable}},
	}
	for _, tc := range cases {
		if got := Resolve(tc.header); got != tc.want {
			t.Errorf("Resolve(%v) = %+v, want %+v", tc.header, got, tc.want)
		}
	}
}

func TestSchemaKeyKind(t *testing.T) {
	if (Schema{Kind: SchemaNameAmount}).KeyKind() != KeyVariety {
		t.Fatalf("amount schema must aggregate by variety")
	}
	for _, k := range []SchemaKind{SchemaNameOnly, SchemaNameQuantity} {
		if (Schema{Kind: k}).KeyKind() != KeyProduct {
			t.Fatalf("%v must aggregate by product", k)
		}
	}
}
