package gateway

// Kind tells which path produced a response.
type Kind string

const (
	KindCached    Kind = "cached"
	KindGenerated Kind = "generated"
	KindFallback  Kind = "fallback"
)

// Reason explains a fallback. It is empty for cached and generated outcomes.
type Reason string

const (
	ReasonUnconfigured   Reason = "unconfigured"
	ReasonBackoff        Reason = "backoff"
	ReasonRateLimited    Reason = "rate_limited"
	ReasonQuotaExhausted Reason = "quota_exhausted"
	ReasonUpstreamError  Reason = "upstream_error"
	ReasonTimeout        Reason = "timeout"
	ReasonOverloaded     Reason = "overloaded"
)

// Outcome is the tagged result of one gateway request. Text is always set.
type Outcome struct {
	Kind        Kind
	Reason      Reason
	Text        string
	Fingerprint string
}

func (o Outcome) IsFallback() bool { return o.Kind == KindFallback }
