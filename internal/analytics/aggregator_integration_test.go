package analytics_test

import (
	"context"
	"testing"
	"time"

	"github.com/zonlink/zonlink/internal/analytics"
	"github.com/zonlink/zonlink/internal/metrics"
	"github.com/zonlink/zonlink/internal/model"
	"github.com/zonlink/zonlink/internal/testutil"
)

const (
	humanUA = "Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 Chrome/120.0 Mobile Safari/537.36"
	botUA   = "facebookexternalhit/1.1"
)

func TestAggregator_RecordClick_FanOut(t *testing.T) {
	st := testutil.NewTestStore(t)
	ctx := context.Background()

	if err := testutil.FlushRedis(ctx, st.Client()); err != nil {
		t.Fatalf("flush redis: %v", err)
	}

	recorder := metrics.NewInMemory()
	agg := analytics.New(st, nil, testutil.DiscardLogger(), recorder)

	asin := "B01N5IB20Q"
	const clicks = 5

	for i := 0; i < clicks; i++ {
		err := agg.RecordClick(ctx, model.ClickEvent{
			ProductID: asin,
			Slug:      "deal1",
			UserAgent: humanUA,
			Country:   "us",
			Referrer:  "https://www.instagram.com/p/abc/",
			ClickedAt: time.Now(),
		})
		if err != nil {
			t.Fatalf("RecordClick: %v", err)
		}
	}

	snap, err := agg.GlobalStats(ctx)
	if err != nil {
		t.Fatalf("GlobalStats: %v", err)
	}

	if snap.TotalClicks != clicks {
		t.Errorf("TotalClicks = %d, want %d", snap.TotalClicks, clicks)
	}
	if snap.BySlug["deal1"] != clicks {
		t.Errorf("BySlug[deal1] = %d, want %d", snap.BySlug["deal1"], clicks)
	}
	if snap.Devices["android"] != clicks {
		t.Errorf("Devices[android] = %d, want %d", snap.Devices["android"], clicks)
	}
	if snap.Browsers["Chrome"] != clicks {
		t.Errorf("Browsers[Chrome] = %d, want %d", snap.Browsers["Chrome"], clicks)
	}
	if snap.Locations["US"] != clicks {
		t.Errorf("Locations[US] = %d, want %d", snap.Locations["US"], clicks)
	}
	if snap.Referrers["instagram.com"] != clicks {
		t.Errorf("Referrers[instagram.com] = %d, want %d", snap.Referrers["instagram.com"], clicks)
	}
	if snap.LastClick == 0 {
		t.Error("LastClick should be set")
	}

	day := time.Now().UTC().Format("2006-01-02")
	if snap.ByDay[day] != clicks {
		t.Errorf("ByDay[%s] = %d, want %d", day, snap.ByDay[day], clicks)
	}

	product, ok := snap.TopLinks[asin]
	if !ok {
		t.Fatalf("TopLinks missing %s", asin)
	}
	if product.Total != clicks {
		t.Errorf("product Total = %d, want %d", product.Total, clicks)
	}
	if product.Devices["android"] != clicks {
		t.Errorf("product Devices[android] = %d, want %d", product.Devices["android"], clicks)
	}

	if got := recorder.Clicks("success"); got != clicks {
		t.Errorf("success metric = %d, want %d", got, clicks)
	}
}

func TestAggregator_RecordClick_BotSeparation(t *testing.T) {
	st := testutil.NewTestStore(t)
	ctx := context.Background()

	if err := testutil.FlushRedis(ctx, st.Client()); err != nil {
		t.Fatalf("flush redis: %v", err)
	}

	agg := analytics.New(st, nil, testutil.DiscardLogger(), nil)

	err := agg.RecordClick(ctx, model.ClickEvent{
		ProductID: "B01N5IB20Q",
		Slug:      "deal1",
		UserAgent: botUA,
	})
	if err != nil {
		t.Fatalf("RecordClick: %v", err)
	}

	snap, err := agg.GlobalStats(ctx)
	if err != nil {
		t.Fatalf("GlobalStats: %v", err)
	}

	if snap.BotClicks != 1 {
		t.Errorf("BotClicks = %d, want 1", snap.BotClicks)
	}
	if snap.TotalClicks != 0 {
		t.Errorf("TotalClicks = %d, want 0: bot hits must not enter rollups", snap.TotalClicks)
	}
	if len(snap.BySlug) != 0 {
		t.Errorf("BySlug = %v, want empty", snap.BySlug)
	}
}

func TestAggregator_OwnerStats_FiltersToOwned(t *testing.T) {
	st := testutil.NewTestStore(t)
	ctx := context.Background()

	if err := testutil.FlushRedis(ctx, st.Client()); err != nil {
		t.Fatalf("flush redis: %v", err)
	}

	agg := analytics.New(st, nil, testutil.DiscardLogger(), nil)

	mine := model.ClickEvent{ProductID: "B01N5IB20Q", Slug: "mine", UserAgent: humanUA, Country: "DE"}
	theirs := model.ClickEvent{ProductID: "B07XJ8C8F5", Slug: "theirs", UserAgent: humanUA, Country: "US"}

	for i := 0; i < 3; i++ {
		if err := agg.RecordClick(ctx, mine); err != nil {
			t.Fatalf("RecordClick: %v", err)
		}
	}
	if err := agg.RecordClick(ctx, theirs); err != nil {
		t.Fatalf("RecordClick: %v", err)
	}

	stats, err := agg.OwnerStats(ctx, []string{"mine"}, []string{"B01N5IB20Q"})
	if err != nil {
		t.Fatalf("OwnerStats: %v", err)
	}

	if stats.TotalClicks != 3 {
		t.Errorf("TotalClicks = %d, want 3", stats.TotalClicks)
	}
	if stats.BySlug["mine"] != 3 {
		t.Errorf("BySlug[mine] = %d, want 3", stats.BySlug["mine"])
	}
	if _, ok := stats.BySlug["theirs"]; ok {
		t.Error("foreign slug leaked into owner view")
	}
	if stats.Locations["DE"] != 3 {
		t.Errorf("Locations[DE] = %d, want 3", stats.Locations["DE"])
	}

	// Device and browser breakdowns are merged across owned products
	// only; the foreign product's clicks must not inflate them.
	if stats.Devices["android"] != 3 {
		t.Errorf("Devices[android] = %d, want 3", stats.Devices["android"])
	}
	if stats.Browsers["Chrome"] != 3 {
		t.Errorf("Browsers[Chrome] = %d, want 3", stats.Browsers["Chrome"])
	}
	if _, ok := stats.TopLinks["B07XJ8C8F5"]; ok {
		t.Error("foreign product leaked into owner view")
	}
}

func TestAggregator_DisabledStore(t *testing.T) {
	t.Parallel()

	st := testutil.NewDisabledStore(t)
	agg := analytics.New(st, nil, testutil.DiscardLogger(), nil)
	ctx := context.Background()

	err := agg.RecordClick(ctx, model.ClickEvent{ProductID: "B01N5IB20Q", UserAgent: humanUA})
	if err != nil {
		t.Fatalf("RecordClick on disabled store: %v", err)
	}

	snap, err := agg.GlobalStats(ctx)
	if err != nil {
		t.Fatalf("GlobalStats on disabled store: %v", err)
	}
	if snap.TotalClicks != 0 || len(snap.TopLinks) != 0 {
		t.Error("disabled store must yield an empty snapshot")
	}
}

func TestAggregator_AffiliateLifecycle(t *testing.T) {
	st := testutil.NewTestStore(t)
	ctx := context.Background()

	if err := testutil.FlushRedis(ctx, st.Client()); err != nil {
		t.Fatalf("flush redis: %v", err)
	}

	agg := analytics.New(st, nil, testutil.DiscardLogger(), nil)

	if err := agg.IncAffiliateClick(ctx, "user-1"); err != nil {
		t.Fatalf("IncAffiliateClick: %v", err)
	}
	if err := agg.IncAffiliateClick(ctx, "user-1"); err != nil {
		t.Fatalf("IncAffiliateClick: %v", err)
	}
	if err := agg.RecordSale(ctx, "user-1", 4.2); err != nil {
		t.Fatalf("RecordSale: %v", err)
	}

	stats, err := agg.AffiliateStats(ctx, "user-1")
	if err != nil {
		t.Fatalf("AffiliateStats: %v", err)
	}

	if stats.Clicks != 2 {
		t.Errorf("Clicks = %d, want 2", stats.Clicks)
	}
	if stats.Sales != 1 {
		t.Errorf("Sales = %d, want 1", stats.Sales)
	}
	if stats.Earnings != 4.2 {
		t.Errorf("Earnings = %f, want 4.2", stats.Earnings)
	}
}
