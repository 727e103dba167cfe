package models

import id "fiscaltask/pkg/domain"

type DocumentType string

// DocumentPaymentReceipt is the evidence that clears payment risk.
const DocumentPaymentReceipt DocumentType = "payment_receipt"

type Document struct {
	TaskID     id.TaskID
	DocumentID id.DocumentID
	Type       DocumentType
}
