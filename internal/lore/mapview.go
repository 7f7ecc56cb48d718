package lore

import (
	"math"
	"sort"
	"strings"

	"lorebook/internal/model"
)

// RingSpacing is the radial distance between depth levels of the place map.
const RingSpacing = 120.0

// MapNode is one Place in the projected map.
type MapNode struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	ParentID    string  `json:"parentId,omitempty"` // nearest Place ancestor
	Depth       int     `json:"depth"`
	SubtreeSize int     `json:"subtreeSize"` // places in this subtree, self included
	Angle       float64 `json:"angle"`       // radians
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
}

// MapEdge joins a Place to its nearest Place ancestor. Dashed edges skip
// over non-Place objects in between.
type MapEdge struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Dashed bool   `json:"dashed"`
}

// PlaceMap is the flat node/edge list of a campaign's places.
type PlaceMap struct {
	Nodes []*MapNode `json:"nodes"`
	Edges []*MapEdge `json:"edges"`
}

// PlaceMap projects the campaign's live Place objects.
func (s *Service) PlaceMap(campaignID string) (*PlaceMap, error) {
	objects, err := s.ListObjects(campaignID)
	if err != nil {
		return nil, err
	}
	return BuildPlaceMap(objects), nil
}

// BuildPlaceMap derives the place-only tree from objects and lays it out
// radially: each subtree gets an angular span proportional to its size and
// each depth level sits on its own ring.
func BuildPlaceMap(objects []*model.Object) *PlaceMap {
	byID := make(map[string]*model.Object, len(objects))
	for _, o := range objects {
		byID[o.ID] = o
	}

	nodes := make(map[string]*MapNode)
	children := make(map[string][]*MapNode)
	var roots []*MapNode
	pm := &PlaceMap{}

	for _, o := range objects {
		if o.Type != model.TypePlace {
			continue
		}
		n := &MapNode{ID: o.ID, Name: o.Name}
		nodes[o.ID] = n
		pm.Nodes = append(pm.Nodes, n)
	}

	for _, n := range pm.Nodes {
		ancestor, dashed := nearestPlace(byID, byID[n.ID])
		if ancestor == nil {
			roots = append(roots, n)
			continue
		}
		n.ParentID = ancestor.ID
		children[ancestor.ID] = append(children[ancestor.ID], n)
		pm.Edges = append(pm.Edges, &MapEdge{From: ancestor.ID, To: n.ID, Dashed: dashed})
	}

	byName := func(list []*MapNode) {
		sort.SliceStable(list, func(i, j int) bool {
			return strings.ToLower(list[i].Name) < strings.ToLower(list[j].Name)
		})
	}
	byName(roots)
	for _, list := range children {
		byName(list)
	}

	var size func(n *MapNode) int
	size = func(n *MapNode) int {
		if n.SubtreeSize > 0 {
			return n.SubtreeSize
		}
		total := 1
		for _, c := range children[n.ID] {
			total += size(c)
		}
		n.SubtreeSize = total
		return total
	}

	var place func(list []*MapNode, depth int, start, span float64)
	place = func(list []*MapNode, depth int, start, span float64) {
		total := 0
		for _, n := range list {
			total += size(n)
		}
		angle := start
		for _, n := range list {
			share := span * float64(n.SubtreeSize) / float64(total)
			n.Depth = depth
			n.Angle = angle + share/2
			radius := float64(depth) * RingSpacing
			n.X = radius * math.Cos(n.Angle)
			n.Y = radius * math.Sin(n.Angle)
			place(children[n.ID], depth+1, angle, share)
			angle += share
		}
	}

	// A single top-level place sits at the centre; several share the first ring.
	if len(roots) == 1 {
		place(roots, 0, 0, 2*math.Pi)
	} else {
		place(roots, 1, 0, 2*math.Pi)
	}
	return pm
}

// nearestPlace walks up from o to the closest Place ancestor. dashed is true
// when at least one non-Place object was skipped on the way.
func nearestPlace(byID map[string]*model.Object, o *model.Object) (ancestor *model.Object, dashed bool) {
	seen := map[string]bool{o.ID: true}
	for p := o.ParentID; p != nil; {
		parent, ok := byID[*p]
		if !ok || seen[parent.ID] {
			return nil, false
		}
		if parent.Type == model.TypePlace {
			return parent, dashed
		}
		seen[parent.ID] = true
		dashed = true
		p = parent.ParentID
	}
	return nil, false
}
