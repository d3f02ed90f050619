package liftover

import (
	"fmt"
	"strings"

	"github.com/biogo/store/llrb"
	"github.com/moka-guys/snparray/interval"
)

// JoinAmbiguityError reports a key that does not identify exactly one
// record on one side of the join.
type JoinAmbiguityError struct {
	Key   string
	Count int
}

func (e *JoinAmbiguityError) Error() string {
	return fmt.Sprintf("liftover: key %s occurs %d times", e.Key, e.Count)
}

// Reconciled is an exported record with its lifted coordinates.
type Reconciled struct {
	Record
	Lifted interval.Interval
}

// Result is the outcome of a join: every exported record ends up in exactly
// one of the two lists, each in export order.
type Result struct {
	Reconciled []Reconciled
	Unmapped   []Unmapped
}

// keyEntry indexes one exported record by key.
type keyEntry struct {
	key string
	idx int
	// hits counts the response records naming the key.
	hits *int
}

func (k keyEntry) Compare(c llrb.Comparable) int {
	return strings.Compare(k.key, c.(keyEntry).key)
}

// Rejoin joins liftOver's response back to the exported originals by exact
// key.  A key occurring more than once among the originals, or more than
// once across mapped and unmapped, is a *JoinAmbiguityError.  A response key
// unknown to the originals, or an original absent from the response, means
// liftOver's output is incomplete or foreign and yields a
// *CollaboratorFailure.  On success
//   len(Reconciled) + len(Unmapped) == len(originals).
func Rejoin(originals, mapped []Record, unmapped []Unmapped) (Result, error) {
	var index llrb.Tree
	for i, r := range originals {
		if index.Get(keyEntry{key: r.Key}) != nil {
			return Result{}, &JoinAmbiguityError{Key: r.Key, Count: countKey(originals, r.Key)}
		}
		index.Insert(keyEntry{key: r.Key, idx: i, hits: new(int)})
	}

	lifted := make([]*interval.Interval, len(originals))
	reasons := make([]*string, len(originals))
	lookup := func(key string) (keyEntry, error) {
		c := index.Get(keyEntry{key: key})
		if c == nil {
			return keyEntry{}, &CollaboratorFailure{Stage: StageRejoin, Err: fmt.Errorf("response key %s matches no exported record", key)}
		}
		e := c.(keyEntry)
		*e.hits++
		if *e.hits > 1 {
			return keyEntry{}, &JoinAmbiguityError{Key: key, Count: *e.hits}
		}
		return e, nil
	}
	for _, m := range mapped {
		e, err := lookup(m.Key)
		if err != nil {
			return Result{}, err
		}
		iv := m.Interval()
		lifted[e.idx] = &iv
	}
	for i := range unmapped {
		e, err := lookup(unmapped[i].Key)
		if err != nil {
			return Result{}, err
		}
		reasons[e.idx] = &unmapped[i].Reason
	}

	var missing string
	index.Do(func(c llrb.Comparable) bool {
		if e := c.(keyEntry); *e.hits == 0 {
			missing = e.key
			return true
		}
		return false
	})
	if missing != "" {
		return Result{}, &CollaboratorFailure{Stage: StageRejoin, Err: fmt.Errorf("exported record %s is neither mapped nor unmapped", missing)}
	}

	var res Result
	for i, r := range originals {
		if lifted[i] != nil {
			res.Reconciled = append(res.Reconciled, Reconciled{Record: r, Lifted: *lifted[i]})
			continue
		}
		res.Unmapped = append(res.Unmapped, Unmapped{Record: r, Reason: *reasons[i]})
	}
	return res, nil
}

func countKey(recs []Record, key string) int {
	n := 0
	for _, r := range recs {
		if r.Key == key {
			n++
		}
	}
	return n
}
