// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package markduplicates

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/grailbio/hts/sam"
	"github.com/stretchr/testify/assert"
)

func loserNames(losers []*sam.Record) []string {
	names := []string{}
	for _, r := range losers {
		names = append(names, r.Name)
	}
	return names
}

func TestIsDuplicate(t *testing.T) {
	base := func() *sam.Record {
		return NewRecordAux("base", chr1, 100, r1F, 500, chr1, cigar0, NewAux("RG", "rg1"))
	}
	tests := []struct {
		name   string
		modify func(r *sam.Record)
		want   bool
		single bool // result in PairedAsSingle mode
	}{
		{"identical", func(r *sam.Record) {}, true, true},
		{"duplicate flag ignored", func(r *sam.Record) { r.Flags |= sam.Duplicate }, true, true},
		{"mapq ignored", func(r *sam.Record) { r.MapQ = 3 }, true, true},
		{"strand", func(r *sam.Record) { r.Flags |= sam.Reverse }, false, false},
		{"read group value", func(r *sam.Record) { r.AuxFields = sam.AuxFields{NewAux("RG", "rg2")} }, false, false},
		{"read group absent", func(r *sam.Record) { r.AuxFields = nil }, false, false},
		{"query length", func(r *sam.Record) { r.Seq = sam.NewSeq([]byte("ACGT")) }, false, false},
		{"aligned length", func(r *sam.Record) {
			r.Cigar = []sam.CigarOp{sam.NewCigarOp(sam.CigarMatch, 5), sam.NewCigarOp(sam.CigarDeletion, 1), sam.NewCigarOp(sam.CigarMatch, 5)}
		}, false, false},
		{"soft clip", func(r *sam.Record) { r.Cigar = cigarSoft1 }, false, false},
		{"paired flag", func(r *sam.Record) { r.Flags &^= sam.Paired }, false, true},
		{"mate ref", func(r *sam.Record) { r.MateRef = chr2 }, false, true},
		{"mate pos", func(r *sam.Record) { r.MatePos = 501 }, false, true},
		{"mate strand", func(r *sam.Record) { r.Flags |= sam.MateReverse }, false, true},
	}
	for _, test := range tests {
		a, b := base(), base()
		test.modify(b)
		assert.Equal(t, test.want, isDuplicate(a, b, DetectAll), test.name)
		assert.Equal(t, test.want, isDuplicate(b, a, DetectAll), test.name)
		assert.Equal(t, test.single, isDuplicate(a, b, PairedAsSingle), test.name)
	}
	// Both without read group match.
	a, b := base(), base()
	a.AuxFields, b.AuxFields = nil, nil
	assert.True(t, isDuplicate(a, b, DetectAll))

	// Both soft clipped the same way match.
	a, b = base(), base()
	a.Cigar, b.Cigar = cigarSoft1, cigarSoft1
	assert.True(t, isDuplicate(a, b, DetectAll))
}

func TestResolveDuplicates(t *testing.T) {
	rec := func(name string, flags sam.Flags, rg string, mapQ byte) *sam.Record {
		return WithMapQ(NewRecordAux(name, chr1, 100, flags, 0, nil, cigar0, NewAux("RG", rg)), mapQ)
	}
	group := []*sam.Record{
		rec("a", 0, "x", 30),
		rec("b", 0, "x", 10),
		rec("c", 0, "x", 30),
		rec("d", sam.Reverse, "x", 30),
		rec("e", 0, "y", 5),
		rec("f", 0, "y", 50),
	}
	losers := resolveDuplicates(group, DetectAll)
	// Ties keep the first record. A better candidate replaces the best.
	assert.Equal(t, []string{"b", "c", "e"}, loserNames(losers))
	assert.Equal(t, 6, len(group))
	assert.Equal(t, "a", group[0].Name)

	assert.Empty(t, resolveDuplicates(group[:1], DetectAll))
	assert.Empty(t, resolveDuplicates(nil, DetectAll))
}

func TestResolveScenarioA(t *testing.T) {
	rg := NewAux("RG", "lane1")
	r1 := WithMapQ(NewRecordAux("r1", chr1, 100, 0, 0, nil, cigar0, rg), 30)
	r2 := WithMapQ(NewRecordAux("r2", chr1, 100, 0, 0, nil, cigar0, rg), 10)
	assert.Equal(t, []string{"r2"}, loserNames(resolveDuplicates([]*sam.Record{r1, r2}, DetectAll)))
	// The order does not matter when the qualities differ.
	assert.Equal(t, []string{"r2"}, loserNames(resolveDuplicates([]*sam.Record{r2, r1}, DetectAll)))
}

func TestResolveBestReplacedTwice(t *testing.T) {
	group := []*sam.Record{
		WithMapQ(NewRecord("q10", chr1, 7, 0, 0, nil, cigar0), 10),
		WithMapQ(NewRecord("q20", chr1, 7, 0, 0, nil, cigar0), 20),
		WithMapQ(NewRecord("q5", chr1, 7, 0, 0, nil, cigar0), 5),
		WithMapQ(NewRecord("q40", chr1, 7, 0, 0, nil, cigar0), 40),
	}
	assert.Equal(t, []string{"q10", "q5", "q20"}, loserNames(resolveDuplicates(group, DetectAll)))
}

// Checks that the number of losers is the group size minus the number of
// classes, that the best of each class survives, and that losers of each
// class are never reported twice.
func TestResolveRandomGroups(t *testing.T) {
	rnd := rand.New(rand.NewSource(0))
	type class struct {
		reverse bool
		rg      int
	}
	for iter := 0; iter < 200; iter++ {
		n := 1 + rnd.Intn(20)
		group := make([]*sam.Record, n)
		classOf := map[string]class{}
		for i := range group {
			c := class{rnd.Intn(2) == 0, rnd.Intn(3)}
			var flags sam.Flags
			if c.reverse {
				flags = sam.Reverse
			}
			name := fmt.Sprintf("r%d", i)
			q := byte(rnd.Intn(4) * 10)
			group[i] = WithMapQ(NewRecordAux(name, chr1, 100, flags, 0, nil, cigar0, NewAux("RG", fmt.Sprint(c.rg))), q)
			classOf[name] = c
		}
		bestQ := map[class]byte{}
		for _, r := range group {
			c := classOf[r.Name]
			if q, ok := bestQ[c]; !ok || r.MapQ > q {
				bestQ[c] = r.MapQ
			}
		}

		losers := resolveDuplicates(group, DetectAll)
		assert.Equal(t, n-len(bestQ), len(losers), "iteration %d", iter)

		lost := map[string]bool{}
		for _, r := range losers {
			assert.False(t, lost[r.Name], "%s reported twice", r.Name)
			lost[r.Name] = true
		}
		survivors := map[class]int{}
		for _, r := range group {
			if lost[r.Name] {
				continue
			}
			c := classOf[r.Name]
			survivors[c]++
			assert.Equal(t, bestQ[c], r.MapQ, "survivor %s is not the best of its class", r.Name)
		}
		for c, cnt := range survivors {
			assert.Equal(t, 1, cnt, "class %+v", c)
		}
	}
}
