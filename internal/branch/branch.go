// Package branch contains the tracked YMCA branches and the identifiers each
// upstream source uses for them.
package branch

import "slices"

// Descriptor identifies a branch across sources.
type Descriptor struct {
	Key       string // stable slug, used in urls and the schedule document
	Name      string
	Address   string
	ClassicID int    // location id on the classic class-listing site
	Y360Name  string // exact branch display name in the Y360 feed
}

// Registry is an immutable set of branches.
type Registry struct {
	branches []Descriptor
	byKey    map[string]int
	byY360   map[string]int
}

// NewRegistry creates a registry. Later duplicates of a key or Y360 name are
// ignored.
func NewRegistry(branches ...Descriptor) *Registry {
	r := &Registry{
		byKey:  make(map[string]int, len(branches)),
		byY360: make(map[string]int, len(branches)),
	}
	for _, b := range branches {
		if _, dup := r.byKey[b.Key]; dup || b.Key == "" {
			continue
		}
		i := len(r.branches)
		r.branches = append(r.branches, b)
		r.byKey[b.Key] = i
		if b.Y360Name != "" {
			if _, dup := r.byY360[b.Y360Name]; !dup {
				r.byY360[b.Y360Name] = i
			}
		}
	}
	return r
}

// All returns the branches in registration order.
func (r *Registry) All() []Descriptor {
	return slices.Clone(r.branches)
}

// Len returns the number of branches.
func (r *Registry) Len() int {
	return len(r.branches)
}

// Lookup returns the branch with the specified key.
func (r *Registry) Lookup(key string) (Descriptor, bool) {
	if i, ok := r.byKey[key]; ok {
		return r.branches[i], true
	}
	return Descriptor{}, false
}

// KeyForY360Name returns the key of the branch with the exact Y360 display
// name. Upstream lists branches we don't track, so a miss is not an error.
func (r *Registry) KeyForY360Name(name string) (string, bool) {
	if i, ok := r.byY360[name]; ok {
		return r.branches[i].Key, true
	}
	return "", false
}

// Filter returns a registry containing only the specified keys, in the
// original order. Unknown keys are returned separately.
func (r *Registry) Filter(keys ...string) (*Registry, []string) {
	var unknown []string
	for _, k := range keys {
		if _, ok := r.byKey[k]; !ok {
			unknown = append(unknown, k)
		}
	}
	return NewRegistry(slices.DeleteFunc(r.All(), func(b Descriptor) bool {
		return !slices.Contains(keys, b.Key)
	})...), unknown
}

// Default contains the YMCA of Greater Indianapolis branches with pools.
var Default = NewRegistry(
	Descriptor{
		Key:       "avondale",
		Name:      "Avondale Meadows YMCA",
		Address:   "3908 Meadows Dr, Indianapolis, IN 46205",
		ClassicID: 8734,
		Y360Name:  "Avondale Meadows YMCA",
	},
	Descriptor{
		Key:       "baxter",
		Name:      "Baxter YMCA",
		Address:   "7900 S Shelby St, Indianapolis, IN 46227",
		ClassicID: 8735,
		Y360Name:  "Baxter YMCA",
	},
	Descriptor{
		Key:       "harrison",
		Name:      "Benjamin Harrison YMCA",
		Address:   "5736 Lee Rd, Indianapolis, IN 46216",
		ClassicID: 8736,
		Y360Name:  "Benjamin Harrison YMCA",
	},
	Descriptor{
		Key:       "fishers",
		Name:      "Fishers YMCA",
		Address:   "9012 E 126th St, Fishers, IN 46038",
		ClassicID: 8737,
		Y360Name:  "Fishers YMCA",
	},
	Descriptor{
		Key:       "hendricks",
		Name:      "Hendricks Regional Health YMCA",
		Address:   "301 Satori Pkwy, Avon, IN 46123",
		ClassicID: 8738,
		Y360Name:  "Hendricks Regional Health YMCA",
	},
	Descriptor{
		Key:       "irsay",
		Name:      "Irsay Family YMCA at CityWay",
		Address:   "430 S Alabama St, Indianapolis, IN 46225",
		ClassicID: 8739,
		Y360Name:  "Irsay Family YMCA at CityWay",
	},
	Descriptor{
		Key:       "jordan",
		Name:      "Jordan YMCA",
		Address:   "8400 Westfield Blvd, Indianapolis, IN 46240",
		ClassicID: 8740,
		Y360Name:  "Jordan YMCA",
	},
	Descriptor{
		Key:       "orthoindy",
		Name:      "OrthoIndy Foundation YMCA",
		Address:   "5315 Lafayette Rd, Indianapolis, IN 46254",
		ClassicID: 8741,
		Y360Name:  "OrthoIndy Foundation YMCA",
	},
	Descriptor{
		Key:       "ransburg",
		Name:      "Ransburg YMCA",
		Address:   "501 N Shortridge Rd, Indianapolis, IN 46219",
		ClassicID: 8742,
		Y360Name:  "Ransburg YMCA",
	},
)
