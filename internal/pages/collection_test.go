package pages

import (
	"reflect"
	"testing"
)

func TestKeysNaturalOrder(t *testing.T) {
	t.Parallel()

	c := Collection{"10": "j", "2": "b", "1": "a", "cover": "x", "01": "y", "appendix": "z"}
	want := []string{"1", "2", "10", "01", "appendix", "cover"}
	if got := c.Keys(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Keys() = %v, want %v", got, want)
	}
	if got := c.Texts(); !reflect.DeepEqual(got, []string{"a", "b", "j", "y", "z", "x"}) {
		t.Fatalf("Texts() = %v", got)
	}
}

func TestFromSliceNumbersFromOne(t *testing.T) {
	t.Parallel()

	c := FromSlice([]string{"first", "second"})
	if text, ok := c.Page(1); !ok || text != "first" {
		t.Fatalf("page 1 = %q, %v", text, ok)
	}
	if _, ok := c.Page(3); ok {
		t.Fatal("page 3 should be missing")
	}
}

func TestSearchMatchesCaseInsensitively(t *testing.T) {
	t.Parallel()

	c := Collection{"1": "The sky is blue.", "2": "Water boils at 100C.", "3": "Blue whales."}
	if got := c.Search("BLUE"); !reflect.DeepEqual(got, []int{1, 3}) {
		t.Fatalf("Search() = %v", got)
	}
	if got := c.Search("   "); got != nil {
		t.Fatalf("blank search should match nothing, got %v", got)
	}
}

func TestDecode(t *testing.T) {
	t.Parallel()

	c, err := Decode([]byte(`{"pages":{"1":"The sky is blue.","2":"Water boils at 100C."}}`))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if c.Len() != 2 || c["2"] != "Water boils at 100C." {
		t.Fatalf("unexpected collection %#v", c)
	}

	empty, err := Decode([]byte(`{}`))
	if err != nil || empty == nil || empty.Len() != 0 {
		t.Fatalf("expected empty collection, got %#v (%v)", empty, err)
	}

	if _, err := Decode([]byte(`{"pages":`)); err == nil {
		t.Fatal("expected decode error")
	}
}
