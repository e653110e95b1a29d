package service

import "sort"

const unspecifiedSchool = "Unspecified"

// Totals counts the records of each roster collection.
type Totals struct {
	Members    int `json:"members"`
	Organizers int `json:"organizers"`
	Affiliates int `json:"affiliates"`
	HonorRoll  int `json:"honorRoll"`
	Timeline   int `json:"timeline"`
}

type Bucket struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Stats is the dashboard summary, computed from the loaded stores.
type Stats struct {
	Totals          Totals   `json:"totals"`
	MembersByBatch  []Bucket `json:"membersByBatch"`
	MembersByGender []Bucket `json:"membersByGender"`
	MembersBySchool []Bucket `json:"membersBySchool"`
}

func ComputeStats(p *Portal) Stats {
	members := p.Members.List()

	byBatch := map[string]int{}
	byGender := map[string]int{}
	bySchool := map[string]int{}
	for _, m := range members {
		byBatch[m.BatchYear]++
		byGender[string(m.Gender)]++
		school := m.School
		if school == "" {
			school = unspecifiedSchool
		}
		bySchool[school]++
	}

	return Stats{
		Totals: Totals{
			Members:    len(members),
			Organizers: p.Organizers.Len(),
			Affiliates: p.Affiliates.Len(),
			HonorRoll:  p.HonorRoll.Len(),
			Timeline:   p.Timeline.Len(),
		},
		MembersByBatch:  buckets(byBatch),
		MembersByGender: buckets(byGender),
		MembersBySchool: buckets(bySchool),
	}
}

// buckets sorts by name so the output is stable.
func buckets(counts map[string]int) []Bucket {
	out := make([]Bucket, 0, len(counts))
	for name, n := range counts {
		out = append(out, Bucket{Name: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
