package usecase

// wasteTypeLabels maps reference display codes to human labels.
var wasteTypeLabels = map[string]string{
	"00001": "Organic",
	"00002": "Recyclable",
	"00003": "General",
	"00004": "Hazardous",
	"00005": "Recycled",
	"00006": "Incinerated",
	"00007": "Landfilled",
}

// WasteTypeLabel returns the human label for a display code, or the code
// itself when it is not in the static table.
func WasteTypeLabel(code string) string {
	if label, ok := wasteTypeLabels[code]; ok {
		return label
	}
	return code
}

// BadgeVariant is the visual class of a status badge.
type BadgeVariant string

const (
	BadgeInfo    BadgeVariant = "info"
	BadgeSuccess BadgeVariant = "success"
	BadgeWarning BadgeVariant = "warning"
	BadgeNeutral BadgeVariant = "neutral"
)

// Badge is the presentation of a record status.
type Badge struct {
	Variant BadgeVariant `json:"variant"`
	Label   string       `json:"label"`
}

// StatusBadge classifies a record status. Unrecognised and empty statuses are
// neutral and keep the raw string as their label.
func StatusBadge(status string) Badge {
	switch status {
	case "Analyzed":
		return Badge{Variant: BadgeInfo, Label: status}
	case "Collected":
		return Badge{Variant: BadgeSuccess, Label: status}
	case "Pending":
		return Badge{Variant: BadgeWarning, Label: status}
	default:
		return Badge{Variant: BadgeNeutral, Label: status}
	}
}

// SortedLabel renders the sensor flag of a record.
func SortedLabel(sortedCorrectly bool) string {
	if sortedCorrectly {
		return "sorted correctly"
	}
	return "sorted incorrectly"
}
