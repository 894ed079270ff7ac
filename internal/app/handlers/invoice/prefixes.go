package invoice

import domaininvoice "staypay/internal/domain/invoice"

// ReferencePrefixes groups the numbering prefixes per reference kind. The
// customer and owner-claim tracks stay distinguishable by prefix alone.
type ReferencePrefixes struct {
	CustomerInvoice string
	OwnerClaim      string
	Receipt         string
	PaymentRef      string
}

func DefaultPrefixes() ReferencePrefixes {
	return ReferencePrefixes{
		CustomerInvoice: "INV",
		OwnerClaim:      "CLM",
		Receipt:         "RCT",
		PaymentRef:      "PAY",
	}
}

func (p ReferencePrefixes) ForTrack(track domaininvoice.Track) string {
	if track == domaininvoice.TrackOwnerClaim {
		return p.OwnerClaim
	}
	return p.CustomerInvoice
}

func (p ReferencePrefixes) withDefaults() ReferencePrefixes {
	def := DefaultPrefixes()
	if p.CustomerInvoice == "" {
		p.CustomerInvoice = def.CustomerInvoice
	}
	if p.OwnerClaim == "" {
		p.OwnerClaim = def.OwnerClaim
	}
	if p.Receipt == "" {
		p.Receipt = def.Receipt
	}
	if p.PaymentRef == "" {
		p.PaymentRef = def.PaymentRef
	}
	return p
}
