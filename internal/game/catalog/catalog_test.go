package catalog

import "testing"

func TestRegions_内置表(t *testing.T) {
	regions, err := Regions()
	if err != nil {
		t.Fatalf("Regions err=%v", err)
	}
	if len(regions) != 20 {
		t.Fatalf("期望 20 个分区, got=%d", len(regions))
	}
	found := false
	for _, r := range regions {
		if r.Owned() {
			t.Fatalf("期望内置分区全部无主, got=%+v", r)
		}
		if r.Name == "sicilia" && r.Capital == "Palermo" {
			found = true
		}
	}
	if !found {
		t.Fatalf("期望包含 sicilia")
	}
}

func TestParse_重复或空名字报错(t *testing.T) {
	cases := map[string]string{
		"dup":   "regions:\n  - name: a\n  - name: a\n",
		"empty": "regions:\n  - capital: x\n",
		"none":  "regions: []\n",
	}
	for name, raw := range cases {
		if _, err := Parse([]byte(raw)); err == nil {
			t.Fatalf("%s: 期望返回错误", name)
		}
	}
}
