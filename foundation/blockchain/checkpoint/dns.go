package checkpoint

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/miekg/dns"
)

// LoadDNS queries domain for TXT records formatted as
// "<height>:<hex-hash>" against resolver, and adds every well-formed
// record it finds. Malformed records, and records that conflict with a
// checkpoint already in the set, are skipped rather than failing the
// whole load (unlike LoadFile, which stops at the first bad line).
func LoadDNS(s *Set, domain, resolver string) (int, error) {
	client := &dns.Client{Timeout: 5 * time.Second}

	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(domain), dns.TypeTXT)
	m.RecursionDesired = true

	resp, _, err := client.Exchange(m, resolver)
	if err != nil {
		return 0, fmt.Errorf("checkpoint: dns query: %w", err)
	}

	var added int
	for _, rr := range resp.Answer {
		txt, ok := rr.(*dns.TXT)
		if !ok {
			continue
		}

		for _, record := range txt.Txt {
			height, hash, ok := parseRecord(record)
			if !ok {
				continue
			}

			if err := s.Add(height, hash); err != nil {
				continue
			}
			added++
		}
	}

	return added, nil
}

// parseRecord splits a "<height>:<hex-hash>" TXT record body.
func parseRecord(record string) (uint64, string, bool) {
	parts := strings.SplitN(record, ":", 2)
	if len(parts) != 2 {
		return 0, "", false
	}

	height, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return 0, "", false
	}

	hash := strings.TrimSpace(parts[1])
	if hash == "" {
		return 0, "", false
	}

	return height, hash, true
}
