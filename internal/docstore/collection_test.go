package docstore

import (
	"context"
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
)

func TestCollection_FindAllAlerts(t *testing.T) {
	t.Parallel()

	coll := &fakeCollection{results: []any{
		bson.D{{Key: "title", Value: "Strike at Port of Hamburg"}, {Key: "text", Value: "Dock workers walked out."}, {Key: "url", Value: "https://news.example/strike"}},
		bson.D{{Key: "title", Value: "Fire at supplier plant"}, {Key: "text", Value: "Production halted."}, {Key: "url", Value: "https://news.example/fire"}},
	}}
	alerts := newCollection[Alert](coll, "alerts", nil)

	got, err := alerts.FindAll(context.Background())
	if err != nil {
		t.Fatalf("FindAll: %v", err)
	}
	if len(got) != 2 || got[0].Title != "Strike at Port of Hamburg" || got[1].URL != "https://news.example/fire" {
		t.Errorf("alerts = %+v", got)
	}
	if len(coll.findOpts) != 1 || coll.findOpts[0].Projection == nil {
		t.Error("FindAll should project away _id")
	}
}

func TestCollection_FindAllEmpty(t *testing.T) {
	t.Parallel()

	got, err := newCollection[Alert](&fakeCollection{}, "alerts", nil).FindAll(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("got %v, want empty non-nil slice", got)
	}
}

func TestCollection_InsertMany(t *testing.T) {
	t.Parallel()

	coll := &fakeCollection{}
	c := newCollection[Alert](coll, "alerts", nil)
	if err := c.InsertMany(context.Background(), nil); err != nil {
		t.Fatalf("empty batch: %v", err)
	}
	if len(coll.many) != 0 {
		t.Error("empty batch should not reach the driver")
	}

	coll.insertErr = errors.New("connection refused")
	if err := c.InsertMany(context.Background(), []any{Alert{Title: "x"}}); !errors.Is(err, ErrInsertMany) {
		t.Errorf("err = %v, want ErrInsertMany", err)
	}
}
