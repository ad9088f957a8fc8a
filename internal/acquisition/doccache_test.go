package acquisition

import "testing"

func TestDocumentCacheGetMissReturnsFalse(t *testing.T) {
	d, err := OpenDocumentCache(t.TempDir())
	if err != nil {
		t.Fatalf("OpenDocumentCache: %v", err)
	}
	if _, ok := d.Get("pydantic_1.0_2.0"); ok {
		t.Fatal("expected a miss for a key never put")
	}
}

func TestDocumentCachePutThenGetRoundTrips(t *testing.T) {
	d, err := OpenDocumentCache(t.TempDir())
	if err != nil {
		t.Fatalf("OpenDocumentCache: %v", err)
	}
	docs := []Document{
		{URL: "https://example.test/changelog", ContentType: "text/markdown", Bytes: []byte("## 2.0.0\n- renamed dict() to model_dump()")},
	}
	if err := d.Put("pydantic_1.0_2.0", docs); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok := d.Get("pydantic_1.0_2.0")
	if !ok {
		t.Fatal("expected a hit after Put")
	}
	if len(got) != 1 || got[0].URL != docs[0].URL || string(got[0].Bytes) != string(docs[0].Bytes) {
		t.Fatalf("unexpected round trip: %+v", got)
	}
}
