package anonymize

// Entities are the contact and network identifiers found in a text.
type Entities struct {
	IPs    []string `json:"ips,omitempty"`
	Emails []string `json:"emails,omitempty"`
	Phones []string `json:"phones,omitempty"`
	URLs   []string `json:"urls,omitempty"`
}

// Map returns the non-empty groups keyed by their JSON names.
func (e Entities) Map() map[string][]string {
	out := make(map[string][]string, 4)
	for k, v := range map[string][]string{
		"ips":    e.IPs,
		"emails": e.Emails,
		"phones": e.Phones,
		"urls":   e.URLs,
	} {
		if len(v) > 0 {
			out[k] = v
		}
	}
	return out
}

// ExtractEntities collects IPs, emails, phones and URLs from text,
// de-duplicated in order of first appearance.
func (a *Anonymizer) ExtractEntities(text string) Entities {
	var e Entities
	for i := range a.detectors {
		d := &a.detectors[i]
		var dst *[]string
		switch d.name {
		case DetectorIPv4:
			dst = &e.IPs
		case DetectorEmail:
			dst = &e.Emails
		case DetectorPhone:
			dst = &e.Phones
		case DetectorURL:
			dst = &e.URLs
		default:
			continue
		}
		*dst = uniqueMatches(d, text)
	}
	return e
}

func uniqueMatches(d *Detector, text string) []string {
	locs := d.find(text)
	if len(locs) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(locs))
	out := make([]string, 0, len(locs))
	for _, loc := range locs {
		s := text[loc[0]:loc[1]]
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
