package analytics

import "github.com/okian/tenderdesk/internal/domain/model"

// Bucket is a display grouping of request statuses.
type Bucket string

const (
	BucketOpen     Bucket = "open"
	BucketClosed   Bucket = "closed"
	BucketCanceled Bucket = "canceled"
	BucketPending  Bucket = "pending"
	BucketOther    Bucket = "other"
)

// statusBuckets maps each stored status to the card it is counted on.
var statusBuckets = map[model.RequestStatus]Bucket{
	model.RequestOpen:                        BucketOpen,
	model.RequestClosed:                      BucketClosed,
	model.RequestCanceled:                    BucketCanceled,
	model.RequestPending:                     BucketPending,
	model.RequestPendingDeliveryConfirmation: BucketPending,
}

// BucketOf returns the bucket a stored status is grouped under.
func BucketOf(s model.RequestStatus) Bucket {
	if b, ok := statusBuckets[s]; ok {
		return b
	}
	return BucketOther
}

// RoleOther collects accounts whose stored role is not recognised.
const RoleOther model.Role = "other"
