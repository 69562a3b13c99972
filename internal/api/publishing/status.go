package publishing

type Status string

// DraftStatus means there has never been a successful submission of the record to the Ledger
const DraftStatus Status = "draft"

// PublishingStatus means the Ledger accepted a submission and resolution is pending. Should be a temporary state
const PublishingStatus Status = "publishing"

// CompletedStatus means the Ledger anchored the record and issued a locator
const CompletedStatus Status = "completed"

// FailedStatus means the Ledger reported a terminal failure for the submission
const FailedStatus Status = "failed"

// Terminal reports whether the status is an end state. Terminal statuses never
// transition again; re-finalizing a terminal record must be a no-op.
func (s Status) Terminal() bool {
	return s == CompletedStatus || s == FailedStatus
}

type RecordKind string

const ProfileKind RecordKind = "profile"
const ProjectKind RecordKind = "project"
const EndorsementKind RecordKind = "endorsement"
const ReportKind RecordKind = "report"
