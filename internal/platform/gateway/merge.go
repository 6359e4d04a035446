package gateway

import "github.com/samber/lo"

// Merge returns base updated with the members present in in. Members absent from in
// keep their stored value so that events carrying partial data do not erase
// details recorded by earlier calls.
func Merge(base, in *Response) *Response {
	if base == nil && in == nil {
		return nil
	}
	out := &Response{}
	if base != nil {
		*out = *base
	}
	if in == nil {
		return out
	}

	if in.Result.Status != "" {
		out.Result = in.Result
	}
	mergeTransaction(&out.Transaction, &in.Transaction)

	if in.Instalment != nil {
		inst := lo.FromPtr(out.Instalment)
		if in.Instalment.CyclesExecuted != 0 {
			inst.CyclesExecuted = in.Instalment.CyclesExecuted
		}
		if in.Instalment.CycleAmount != 0 {
			inst.CycleAmount = in.Instalment.CycleAmount
		}
		if in.Instalment.PendingCycles != 0 {
			inst.PendingCycles = in.Instalment.PendingCycles
		}
		if in.Instalment.TotalAmount != 0 {
			inst.TotalAmount = in.Instalment.TotalAmount
		}
		if len(in.Instalment.CycleDates) > 0 {
			inst.CycleDates = in.Instalment.CycleDates
		}
		out.Instalment = &inst
	}
	if in.Event != nil {
		out.Event = in.Event
	}
	if in.Merchant != nil {
		out.Merchant = in.Merchant
	}
	if in.Custom != nil {
		out.Custom = in.Custom
	}
	if in.Collection != nil {
		out.Collection = in.Collection
	}
	out.doc = nil
	return out
}

func mergeTransaction(dst, src *Transaction) {
	if src.TID != "" {
		dst.TID = src.TID
	}
	if src.Status != "" {
		dst.Status = src.Status
	}
	if src.PaymentType != "" {
		dst.PaymentType = src.PaymentType
	}
	if src.Amount != 0 {
		dst.Amount = src.Amount
	}
	if src.Currency != "" {
		dst.Currency = src.Currency
	}
	if src.OrderNo != "" {
		dst.OrderNo = src.OrderNo
	}
	if src.TestMode != 0 {
		dst.TestMode = src.TestMode
	}
	if src.DueDate != "" {
		dst.DueDate = src.DueDate
	}
	if src.InvoiceRef != "" {
		dst.InvoiceRef = src.InvoiceRef
	}
	if src.UpdateType != "" {
		dst.UpdateType = src.UpdateType
	}
	if src.PartnerPaymentReference != "" {
		dst.PartnerPaymentReference = src.PartnerPaymentReference
	}
	if src.ServiceSupplierID != "" {
		dst.ServiceSupplierID = src.ServiceSupplierID
	}
	if src.BankDetails != nil {
		dst.BankDetails = src.BankDetails
	}
	if len(src.NearestStores) > 0 {
		dst.NearestStores = src.NearestStores
	}
	if src.PaymentData != nil {
		pd := lo.FromPtr(dst.PaymentData)
		mergePaymentData(&pd, src.PaymentData)
		dst.PaymentData = &pd
	}
	if src.Refund != nil {
		dst.Refund = src.Refund
	}
	// txn_secret is one-time and never kept in the stored response
	dst.TxnSecret = ""
}

func mergePaymentData(dst, src *PaymentData) {
	dst.Token = lo.CoalesceOrEmpty(src.Token, dst.Token)
	dst.IBAN = lo.CoalesceOrEmpty(src.IBAN, dst.IBAN)
	dst.BIC = lo.CoalesceOrEmpty(src.BIC, dst.BIC)
	dst.CardHolder = lo.CoalesceOrEmpty(src.CardHolder, dst.CardHolder)
	dst.CardNumber = lo.CoalesceOrEmpty(src.CardNumber, dst.CardNumber)
	dst.CardBrand = lo.CoalesceOrEmpty(src.CardBrand, dst.CardBrand)
	dst.CardExpiryMonth = lo.CoalesceOrEmpty(src.CardExpiryMonth, dst.CardExpiryMonth)
	dst.CardExpiryYear = lo.CoalesceOrEmpty(src.CardExpiryYear, dst.CardExpiryYear)
	dst.AccountHolder = lo.CoalesceOrEmpty(src.AccountHolder, dst.AccountHolder)
	dst.PaypalAccount = lo.CoalesceOrEmpty(src.PaypalAccount, dst.PaypalAccount)
	dst.PaypalTransactionID = lo.CoalesceOrEmpty(src.PaypalTransactionID, dst.PaypalTransactionID)
}
