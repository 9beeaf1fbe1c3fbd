package sweep

import (
	"iter"
	"strings"
)

// OnlyJobID is the job ID used when no parameter is swept.
const OnlyJobID = "theOnlyJob"

// GinFlag is the run-command flag that carries all gin bindings of a job.
const GinFlag = "ginBindings"

// JobSpec is one combination of the sweep.
type JobSpec struct {
	Index    int       // 0-based enumeration position
	Bindings []Binding // one per swept parameter, in ParameterSet order
	Args     []string  // rendered flags: standalone "--name value" first, gin flag last
	ID       string    // underscore-joined values, or OnlyJobID
	Hash     string    // PositiveHash(ID)
}

// Name returns the artifact name {dateTag}_{ID}_{Hash}.
func (j *JobSpec) Name(dateTag string) string {
	return strings.Join([]string{dateTag, j.ID, j.Hash}, "_")
}

// ArgString joins Args with single spaces.
func (j *JobSpec) ArgString() string {
	return strings.Join(j.Args, " ")
}

// Expand lazily enumerates the Cartesian product of the set's candidate lists.
// The last parameter varies fastest. An empty set yields exactly one job with ID
// OnlyJobID; a parameter with no candidates yields no jobs.
//
// Iteration stops after yielding a *MalformedCombinationError.
func (ps *ParameterSet) Expand() iter.Seq2[*JobSpec, error] {
	return func(yield func(*JobSpec, error) bool) {
		lists := make([][]Binding, len(ps.names))
		for i, name := range ps.names {
			lists[i] = ps.values[name]
			if len(lists[i]) == 0 {
				return
			}
		}

		idx := make([]int, len(lists))
		for n := 0; ; n++ {
			combo := make([]Binding, len(lists))
			for i, list := range lists {
				combo[i] = list[idx[i]]
			}

			job, err := ps.newJobSpec(n, combo)
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(job, nil) {
				return
			}

			// advance the odometer
			i := len(idx) - 1
			for ; i >= 0; i-- {
				idx[i]++
				if idx[i] < len(lists[i]) {
					break
				}
				idx[i] = 0
			}
			if i < 0 {
				return
			}
		}
	}
}

// Jobs collects the whole expansion, stopping at the first error.
func (ps *ParameterSet) Jobs() ([]*JobSpec, error) {
	var jobs []*JobSpec
	for job, err := range ps.Expand() {
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func (ps *ParameterSet) newJobSpec(index int, combo []Binding) (*JobSpec, error) {
	var args, ginArgs, ids []string

	for i, b := range combo {
		if b.Name == "" || b.Name != ps.names[i] {
			return nil, &MalformedCombinationError{Index: index, Position: i, Key: ps.names[i], Binding: b}
		}
		val := FormatValue(b.Value)
		if _, ok := ps.ns.Query(b.Name); ok {
			ginArgs = append(ginArgs, b.Name+"="+val)
		} else {
			args = append(args, "--"+b.Name+" "+val)
		}
		ids = append(ids, val)
	}

	if len(ginArgs) > 0 {
		args = append(args, "--"+GinFlag+" "+strings.Join(ginArgs, " "))
	}

	id := OnlyJobID
	if len(ids) > 0 {
		id = strings.Join(ids, "_")
	}

	return &JobSpec{
		Index:    index,
		Bindings: combo,
		Args:     args,
		ID:       id,
		Hash:     PositiveHash(id),
	}, nil
}
