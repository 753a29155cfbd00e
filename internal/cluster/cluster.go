// Package cluster groups documents by embedding similarity in a single pass.
//
// Each incoming document joins the most similar existing cluster whose
// reference vector is above the threshold, or starts a new cluster. The result
// depends on insertion order; there is no re-clustering pass.
package cluster

import (
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vecnote/internal/vecmath"
)

// DefaultThreshold is the minimum similarity (exclusive) to join a cluster.
const DefaultThreshold = 0.75

const (
	untitled      = "Untitled"
	summaryTitles = 3
)

// Strategy selects how a cluster's reference vector evolves.
type Strategy string

// Strategies.
const (
	// StrategyLeader keeps the first member's embedding forever.
	StrategyLeader Strategy = "leader"
	// StrategyCentroid moves the reference vector to the running mean of members.
	StrategyCentroid Strategy = "centroid"
)

// Member is one clustered document.
type Member struct {
	ID    string
	Title string
}

// Cluster is a group of similar documents.
type Cluster struct {
	ID          int
	Leader      []float32
	Centroid    []float32
	LeaderTitle string
	Members     []Member
}

// Summary is the compact view of a cluster sent to a completion model.
type Summary struct {
	ClusterID            int      `json:"cluster_id"`
	RepresentativeTitles []string `json:"representative_titles"`
	Count                int      `json:"count"`
}

// Clusterer is a leader–follower clusterer. Add must not be called
// concurrently; reads may run alongside each other.
type Clusterer struct {
	mu        sync.RWMutex
	threshold float64
	strategy  Strategy
	clusters  []*Cluster
	logger    *zap.Logger
}

// New creates a Clusterer. A non-positive threshold selects DefaultThreshold.
func New(threshold float64, logger *zap.Logger) *Clusterer {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Clusterer{threshold: threshold, strategy: StrategyLeader, logger: logger}
}

// WithStrategy selects the reference vector strategy. Unknown values keep the leader.
func (c *Clusterer) WithStrategy(s Strategy) *Clusterer {
	if s == StrategyCentroid {
		c.strategy = s
	}
	return c
}

// Add assigns a document to a cluster. Documents without an embedding are
// skipped.
func (c *Clusterer) Add(id string, embedding []float32, title string) {
	if len(embedding) == 0 {
		c.logger.Warn("Document has no embedding, skipping clustering", zap.String("id", id))
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var best *Cluster
	bestSim := -1.0
	for _, cl := range c.clusters {
		sim := vecmath.Cosine(embedding, c.reference(cl))
		if sim > c.threshold && sim > bestSim {
			best, bestSim = cl, sim
		}
	}

	if best != nil {
		best.Members = append(best.Members, Member{ID: id, Title: title})
		if c.strategy == StrategyCentroid {
			updateMean(best.Centroid, embedding, len(best.Members))
		}
		return
	}

	if title == "" {
		title = untitled
	}
	vec := slices.Clone(embedding)
	cl := &Cluster{
		ID:          len(c.clusters),
		Leader:      vec,
		LeaderTitle: title,
		Members:     []Member{{ID: id, Title: title}},
	}
	if c.strategy == StrategyCentroid {
		cl.Centroid = slices.Clone(vec)
	}
	c.clusters = append(c.clusters, cl)
}

func (c *Clusterer) reference(cl *Cluster) []float32 {
	if c.strategy == StrategyCentroid {
		return cl.Centroid
	}
	return cl.Leader
}

// updateMean folds v into the running mean of n vectors. Vectors of another
// dimensionality are ignored.
func updateMean(mean, v []float32, n int) {
	if len(mean) != len(v) {
		return
	}
	k := float32(n)
	for i := range mean {
		mean[i] += (v[i] - mean[i]) / k
	}
}

// Clusters returns a snapshot of the clusters in creation order.
func (c *Clusterer) Clusters() []Cluster {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Cluster, len(c.clusters))
	for i, cl := range c.clusters {
		out[i] = Cluster{
			ID:          cl.ID,
			Leader:      slices.Clone(cl.Leader),
			Centroid:    slices.Clone(cl.Centroid),
			LeaderTitle: cl.LeaderTitle,
			Members:     slices.Clone(cl.Members),
		}
	}
	return out
}

// Len returns the number of clusters.
func (c *Clusterer) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.clusters)
}

// Summaries returns up to three member titles and the member count per cluster.
func (c *Clusterer) Summaries() []Summary {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Summary, 0, len(c.clusters))
	for _, cl := range c.clusters {
		n := min(len(cl.Members), summaryTitles)
		titles := make([]string, 0, n)
		for _, m := range cl.Members[:n] {
			t := m.Title
			if t == "" {
				t = untitled
			}
			titles = append(titles, t)
		}
		out = append(out, Summary{
			ClusterID:            cl.ID,
			RepresentativeTitles: titles,
			Count:                len(cl.Members),
		})
	}
	return out
}
