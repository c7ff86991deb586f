package workorder

import "context"

// Default starting order ids per branch. A branch with no committed orders
// yet gets its base id; unlisted branches fall back to 1001.
var branchBaseIDs = map[string]int64{
	"TVR":  3742,
	"NTA":  2309,
	"KOT1": 5701,
	"KOT2": 6701,
	"KAT":  2678,
}

const fallbackBaseID = 1001

// orderIDSource is the slice of the order repository the allocator needs.
type orderIDSource interface {
	// MaxOrderID reports the highest committed order id for the branch and
	// whether any order exists at all.
	MaxOrderID(ctx context.Context, branch string) (int64, bool, error)
}

// Allocator hands out the next branch-scoped order id. It is advisory
// only: nothing is reserved, and the commit path owns the single-retry
// contract when two sessions race to the same id.
type Allocator struct {
	src orderIDSource
}

func NewAllocator(src orderIDSource) *Allocator {
	return &Allocator{src: src}
}

// Allocate returns max existing id + 1 for the branch, or the branch's base
// id when no order exists yet. Never called for edit sessions; edits keep
// their hydrated id.
func (a *Allocator) Allocate(ctx context.Context, branch string) (int64, error) {
	max, found, err := a.src.MaxOrderID(ctx, branch)
	if err != nil {
		return 0, &TransientError{Op: "order id allocation", Err: err}
	}
	if !found {
		if base, ok := branchBaseIDs[branch]; ok {
			return base, nil
		}
		return fallbackBaseID, nil
	}
	return max + 1, nil
}
