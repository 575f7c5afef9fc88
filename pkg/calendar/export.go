package calendar

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

func (t Tier) String() string {
	switch t {
	case TierNone:
		return "none"
	case TierThree:
		return "three"
	case TierFour:
		return "four"
	case TierMany:
		return "many"
	default:
		return fmt.Sprintf("tier(%d)", int(t))
	}
}

// WriteCSV writes counts as "date,count,tier" rows below a header row.
func WriteCSV(w io.Writer, counts []DailyCount) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"date", "count", "tier"}); err != nil {
		return err
	}
	for _, c := range counts {
		row := []string{c.Date.Format("2006-01-02"), strconv.Itoa(c.Count), c.Tier.String()}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
