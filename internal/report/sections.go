package report

// Section keys carry a numeric prefix that fixes rendering order. The prefix
// is presentation-only and is stripped from every rendered name.
const (
	keyHeaders     = "1_headers"
	keyEnvironment = "2_environment"
	keyRemoteIP    = "3_remote_ip"
	keyPublicIPs   = "4_public_ips"
	keyIsolation   = "5_isolation_posture"
	keySystem      = "6_system_info"
)

type Section struct {
	Key   string
	Value any
}

// Name is the section key without its ordering prefix.
func (s Section) Name() string { return StripOrderPrefix(s.Key) }

// Sections returns the document in its fixed order.
func (s Snapshot) Sections() []Section {
	return []Section{
		{keyHeaders, s.Headers},
		{keyEnvironment, s.Environment},
		{keyRemoteIP, s.RemoteIP},
		{keyPublicIPs, s.PublicIPs},
		{keyIsolation, s.Isolation},
		{keySystem, s.System},
	}
}

// StripOrderPrefix removes a leading "<digits>_" from key, if present.
func StripOrderPrefix(key string) string {
	i := 0
	for i < len(key) && key[i] >= '0' && key[i] <= '9' {
		i++
	}
	if i == 0 || i >= len(key) || key[i] != '_' {
		return key
	}
	return key[i+1:]
}
