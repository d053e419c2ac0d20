package compare

import (
	"fmt"
	"slices"

	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"

	"github.com/justestif/emolyrics/internal/session"
)

// versionObservation wraps a Version to implement clusters.Observation.
type versionObservation struct {
	index  int
	coords clusters.Coordinates
}

func (o versionObservation) Coordinates() clusters.Coordinates {
	return o.coords
}

func (o versionObservation) Distance(point clusters.Coordinates) float64 {
	return o.coords.Distance(point)
}

// Group partitions versions into at most k groups of similar emotional
// profile using k-means. Each group keeps its members in input order, and
// groups are ordered by their first member. Empty clusters are dropped.
func Group(versions []session.Version, k int) ([][]session.Version, error) {
	if k <= 0 {
		return nil, fmt.Errorf("invalid group count %d", k)
	}
	if len(versions) < k {
		return nil, fmt.Errorf("need at least %d versions to form %d groups, got %d", k, k, len(versions))
	}

	var obs clusters.Observations
	for i, v := range versions {
		obs = append(obs, versionObservation{index: i, coords: coordinates(v.Scores)})
	}

	km := kmeans.New()
	result, err := km.Partition(obs, k)
	if err != nil {
		return nil, fmt.Errorf("partitioning versions: %w", err)
	}

	var indexGroups [][]int
	for _, cluster := range result {
		var members []int
		for _, o := range cluster.Observations {
			if vo, ok := o.(versionObservation); ok {
				members = append(members, vo.index)
			}
		}
		if len(members) == 0 {
			continue
		}
		slices.Sort(members)
		indexGroups = append(indexGroups, members)
	}

	slices.SortFunc(indexGroups, func(a, b []int) int {
		return a[0] - b[0]
	})

	groups := make([][]session.Version, len(indexGroups))
	for i, members := range indexGroups {
		for _, idx := range members {
			groups[i] = append(groups[i], versions[idx])
		}
	}
	return groups, nil
}
