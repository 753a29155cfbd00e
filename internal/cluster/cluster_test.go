package cluster

import (
	"math"
	"reflect"
	"slices"
	"testing"
)

func TestClusterer_TwoClustersFixedLeader(t *testing.T) {
	c := New(0.75, nil)

	c.Add("1", []float32{1, 0}, "first")
	c.Add("2", []float32{0.95, 0.31}, "second")
	c.Add("3", []float32{0, 1}, "third")

	clusters := c.Clusters()
	if len(clusters) != 2 {
		t.Fatalf("expected 2 clusters, got %d", len(clusters))
	}
	if !slices.Equal(clusters[0].Leader, []float32{1, 0}) {
		t.Errorf("unexpected leader %v", clusters[0].Leader)
	}
	if clusters[0].LeaderTitle != "first" {
		t.Errorf("unexpected leader title %q", clusters[0].LeaderTitle)
	}
	wantMembers := []Member{{ID: "1", Title: "first"}, {ID: "2", Title: "second"}}
	if !slices.Equal(clusters[0].Members, wantMembers) {
		t.Errorf("expected %v, got %v", wantMembers, clusters[0].Members)
	}
	if clusters[1].ID != 1 || !slices.Equal(clusters[1].Leader, []float32{0, 1}) {
		t.Errorf("unexpected second cluster %+v", clusters[1])
	}

	// Later additions never move the leader.
	c.Add("4", []float32{0.8, 0.6}, "fourth")
	if leader := c.Clusters()[0].Leader; !slices.Equal(leader, []float32{1, 0}) {
		t.Errorf("leader moved to %v", leader)
	}
}

func TestClusterer_OrderSensitive(t *testing.T) {
	// b sits between a and c: a·b and b·c are above the threshold, a·c is not.
	a := []float32{1, 0}
	b := []float32{0.906, 0.423}
	cv := []float32{0.643, 0.766}

	forward := New(0.75, nil)
	forward.Add("a", a, "a")
	forward.Add("b", b, "b")
	forward.Add("c", cv, "c")

	middleFirst := New(0.75, nil)
	middleFirst.Add("b", b, "b")
	middleFirst.Add("a", a, "a")
	middleFirst.Add("c", cv, "c")

	if forward.Len() != 2 {
		t.Errorf("forward: expected 2 clusters, got %d", forward.Len())
	}
	if middleFirst.Len() != 1 {
		t.Errorf("middle first: expected 1 cluster, got %d", middleFirst.Len())
	}
}

func TestClusterer_Deterministic(t *testing.T) {
	vectors := [][]float32{{1, 0}, {0, 1}, {0.9, 0.1}, {0.1, 0.9}, {-1, 0}}
	run := func() []Summary {
		c := New(0.75, nil)
		for i, v := range vectors {
			c.Add(string(rune('a'+i)), v, "")
		}
		return c.Summaries()
	}
	if first, second := run(), run(); !reflect.DeepEqual(first, second) {
		t.Errorf("runs differ: %v vs %v", first, second)
	}
}

func TestClusterer_BestClusterWins(t *testing.T) {
	c := New(0.5, nil)
	c.Add("x", []float32{1, 0}, "x")
	c.Add("y", []float32{0, 1}, "y")
	c.Add("z", []float32{0.6, 0.8}, "z")

	clusters := c.Clusters()
	if len(clusters) != 2 {
		t.Fatalf("expected 2 clusters, got %d", len(clusters))
	}
	if len(clusters[0].Members) != 1 || len(clusters[1].Members) != 2 {
		t.Errorf("z should join y, got %d and %d members", len(clusters[0].Members), len(clusters[1].Members))
	}
}

func TestClusterer_ThresholdIsExclusive(t *testing.T) {
	c := New(0.6, nil)
	c.Add("x", []float32{1, 0}, "x")
	c.Add("y", []float32{3, 4}, "y")

	if c.Len() != 2 {
		t.Errorf("similarity equal to the threshold must not join, got %d clusters", c.Len())
	}
}

func TestClusterer_SkipsEmptyEmbedding(t *testing.T) {
	c := New(0, nil)
	c.Add("none", nil, "none")
	if c.Len() != 0 || len(c.Summaries()) != 0 {
		t.Errorf("expected no clusters, got %d", c.Len())
	}
}

func TestClusterer_Summaries(t *testing.T) {
	c := New(0.75, nil)
	c.Add("1", []float32{1, 0}, "")
	for i := range 4 {
		c.Add(string(rune('2'+i)), []float32{1, 0}, "t")
	}
	c.Add("9", []float32{0, 1}, "other")

	got := c.Summaries()

	want := []Summary{
		{ClusterID: 0, RepresentativeTitles: []string{"Untitled", "t", "t"}, Count: 5},
		{ClusterID: 1, RepresentativeTitles: []string{"other"}, Count: 1},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %+v, got %+v", want, got)
	}
	if title := c.Clusters()[0].LeaderTitle; title != "Untitled" {
		t.Errorf("expected Untitled leader, got %q", title)
	}
}

func TestClusterer_CentroidStrategy(t *testing.T) {
	c := New(0.75, nil).WithStrategy(StrategyCentroid)
	c.Add("1", []float32{1, 0}, "a")
	c.Add("2", []float32{0.8, 0.6}, "b")

	clusters := c.Clusters()
	if len(clusters) != 1 {
		t.Fatalf("expected 1 cluster, got %d", len(clusters))
	}
	if !slices.Equal(clusters[0].Leader, []float32{1, 0}) {
		t.Errorf("leader moved to %v", clusters[0].Leader)
	}
	centroid := clusters[0].Centroid
	if math.Abs(float64(centroid[0])-0.9) > 1e-6 || math.Abs(float64(centroid[1])-0.3) > 1e-6 {
		t.Errorf("expected centroid [0.9 0.3], got %v", centroid)
	}
}
