package dispatch

import (
	"strconv"
	"strings"
)

// Quote is the mock charge shown on the payment overlay. Amounts are in
// paise.
type Quote struct {
	EnergyEstimate int64 `json:"energy_estimate"`
	ServiceFee     int64 `json:"service_fee"`
}

// Total returns the amount due.
func (q Quote) Total() int64 { return q.EnergyEstimate + q.ServiceFee }

// FormatINR renders paise as rupees with Indian digit grouping, dropping
// the fractional part when it is zero: 125000 -> "₹1,250".
func FormatINR(paise int64) string {
	neg := paise < 0
	if neg {
		paise = -paise
	}
	rupees, frac := paise/100, paise%100
	s := groupIndian(strconv.FormatInt(rupees, 10))
	if frac != 0 {
		s += "." + leftPad2(frac)
	}
	if neg {
		return "-₹" + s
	}
	return "₹" + s
}

// groupIndian inserts separators as 12,34,567: last three digits, then pairs.
func groupIndian(d string) string {
	if len(d) <= 3 {
		return d
	}
	head, tail := d[:len(d)-3], d[len(d)-3:]
	var parts []string
	for len(head) > 2 {
		parts = append([]string{head[len(head)-2:]}, parts...)
		head = head[:len(head)-2]
	}
	parts = append([]string{head}, parts...)
	return strings.Join(parts, ",") + "," + tail
}

func leftPad2(v int64) string {
	if v < 10 {
		return "0" + strconv.FormatInt(v, 10)
	}
	return strconv.FormatInt(v, 10)
}
