package order

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"
)

type Status string

const (
	StatusInProgress    Status = "in_progress"
	StatusPendingReview Status = "pending_review"
	StatusApproved      Status = "approved"
	StatusCompleted     Status = "completed"
)

// Step is one of the ordering stages plus the terminal "complete" state.
type Step string

const (
	StepProductSelection    Step = "product_selection"
	StepDesignPlacement     Step = "design_placement"
	StepQuantityCollection  Step = "quantity_collection"
	StepCustomerInformation Step = "customer_information"
	StepComplete            Step = "complete"
)

var (
	ErrMalformedProductDetails = errors.New("product details missing a usable price")
	ErrDesignIndexOutOfRange   = errors.New("design index out of range")
)

type ProductDetails struct {
	Name         string `json:"name"`
	Color        string `json:"color"`
	Style        string `json:"style,omitempty"`
	Price        string `json:"price"`
	Category     string `json:"category,omitempty"`
	ImageURL     string `json:"image_url,omitempty"`
	BackImageURL string `json:"back_image_url,omitempty"`
}

type DesignEntry struct {
	StoragePath string `json:"storage_path"`
	Filename    string `json:"filename"`
	FileType    string `json:"file_type,omitempty"`
	Side        string `json:"side"` // "front" or "back"
	Placement   string `json:"placement,omitempty"`
	PreviewURL  string `json:"preview_url,omitempty"`
	HasLogo     bool   `json:"has_logo"`
}

type PaymentInfo struct {
	PaymentURL    string `json:"payment_url"`
	InvoiceID     string `json:"invoice_id"`
	InvoiceNumber string `json:"invoice_number"`
	Status        string `json:"status"`
}

// Record is the accumulating state of one customer's order. Handlers
// mutate it only through the named operations below so the derived
// fields (logo_count, total_quantity, total_price) stay consistent.
type Record struct {
	SessionID  string    `json:"session_id"`
	LastActive time.Time `json:"last_active"`
	Status     Status    `json:"status"`

	ProductSelected  bool             `json:"product_selected"`
	ProductDetails   *ProductDetails  `json:"product_details,omitempty"`
	PricePerItem     float64          `json:"price_per_item"`
	RejectedProducts []ProductDetails `json:"rejected_products,omitempty"`

	Designs           []DesignEntry `json:"designs,omitempty"`
	DesignUploaded    bool          `json:"design_uploaded"`
	LogoCount         int           `json:"logo_count"`
	PlacementSelected bool          `json:"placement_selected"`

	// Mirror fields for the most recently added design. Older external
	// readers of persisted records still expect these at the top level.
	DesignPath     string `json:"design_path,omitempty"`
	DesignFilename string `json:"design_filename,omitempty"`
	Placement      string `json:"placement,omitempty"`
	PreviewURL     string `json:"preview_url,omitempty"`

	Sizes               map[string]int `json:"sizes,omitempty"`
	TotalQuantity       int            `json:"total_quantity"`
	QuantitiesCollected bool           `json:"quantities_collected"`

	ExpressShippingPercentage int     `json:"express_shipping_percentage"`
	ExpressShippingCharge     float64 `json:"express_shipping_charge"`
	TotalPrice                float64 `json:"total_price"`

	CustomerName          string `json:"customer_name,omitempty"`
	ShippingAddress       string `json:"shipping_address,omitempty"`
	Email                 string `json:"email,omitempty"`
	ReceivedByDate        string `json:"received_by_date,omitempty"`
	CustomerInfoCollected bool   `json:"customer_info_collected"`

	PaymentURL           string `json:"payment_url,omitempty"`
	InvoiceID            string `json:"invoice_id,omitempty"`
	InvoiceNumber        string `json:"invoice_number,omitempty"`
	PaymentStatus        string `json:"payment_status,omitempty"`
	PaymentInfoCollected bool   `json:"payment_info_collected"`
}

func New(sessionID string) *Record {
	return &Record{
		SessionID:  sessionID,
		Status:     StatusInProgress,
		LastActive: time.Now().UTC(),
		Sizes:      map[string]int{},
	}
}

// ParsePrice converts a price string like "$12.36" or "12.36" into a
// non-negative amount.
func ParsePrice(raw string) (float64, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "$")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	if cleaned == "" {
		return 0, fmt.Errorf("empty price string")
	}
	price, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("unparseable price %q: %w", raw, err)
	}
	if price < 0 {
		return 0, fmt.Errorf("negative price %q", raw)
	}
	return price, nil
}

// UpdateProduct records the selected product and extracts its per-item
// price. It never touches designs or logo_count.
func (r *Record) UpdateProduct(details ProductDetails) error {
	price, err := ParsePrice(details.Price)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedProductDetails, err)
	}
	d := details
	r.ProductSelected = true
	r.ProductDetails = &d
	r.PricePerItem = price
	if r.QuantitiesCollected {
		ComputeTotal(r)
	}
	return nil
}

func (r *Record) AddDesign(storagePath, filename, fileType, side string, hasLogo bool) {
	entry := DesignEntry{
		StoragePath: storagePath,
		Filename:    filename,
		FileType:    fileType,
		Side:        side,
		HasLogo:     hasLogo,
	}
	r.Designs = append(r.Designs, entry)
	if hasLogo {
		r.LogoCount++
	}
	r.DesignUploaded = true
	r.syncDesignMirror()
	if r.QuantitiesCollected {
		ComputeTotal(r)
	}
}

// UpdatePlacement writes placement and preview onto the indexed design.
// Pass a negative index to target the most recently added design.
func (r *Record) UpdatePlacement(placement, previewURL string, designIndex int) error {
	if len(r.Designs) == 0 {
		return fmt.Errorf("%w: no designs uploaded", ErrDesignIndexOutOfRange)
	}
	if designIndex < 0 {
		designIndex = len(r.Designs) - 1
	}
	if designIndex >= len(r.Designs) {
		return fmt.Errorf("%w: index %d with %d designs", ErrDesignIndexOutOfRange, designIndex, len(r.Designs))
	}
	r.Designs[designIndex].Placement = placement
	if previewURL != "" {
		r.Designs[designIndex].PreviewURL = previewURL
	}
	r.PlacementSelected = true
	r.syncDesignMirror()
	RepairLogoCount(r)
	if r.QuantitiesCollected && r.PricePerItem > 0 {
		ComputeTotal(r)
	}
	return nil
}

// UpdateQuantities replaces the size breakdown. Zero and negative
// quantities are dropped silently.
func (r *Record) UpdateQuantities(sizes map[string]int) {
	cleaned := map[string]int{}
	total := 0
	for label, qty := range sizes {
		if qty <= 0 {
			continue
		}
		cleaned[label] = qty
		total += qty
	}
	r.Sizes = cleaned
	r.TotalQuantity = total
	r.QuantitiesCollected = true
	RepairLogoCount(r)
	if r.PricePerItem > 0 {
		ComputeTotal(r)
	}
}

func (r *Record) UpdateCustomerInfo(name, address, email, receivedByDate string) {
	r.CustomerName = name
	r.ShippingAddress = address
	r.Email = email
	r.CustomerInfoCollected = true
	if receivedByDate != "" {
		r.ReceivedByDate = receivedByDate
		pct := ComputeExpressShippingPercentage(receivedByDate, time.Now())
		if pct != r.ExpressShippingPercentage {
			r.ExpressShippingPercentage = pct
			ComputeTotal(r)
		}
	}
	if r.IsComplete() && r.Status == StatusInProgress {
		r.Status = StatusPendingReview
	}
}

// AddRejectedProduct moves the current product into the rejected list
// and reopens product selection. Stale price_per_item, designs and
// placement intentionally survive rejection.
func (r *Record) AddRejectedProduct() {
	if r.ProductDetails != nil {
		r.RejectedProducts = append(r.RejectedProducts, *r.ProductDetails)
	}
	r.ProductSelected = false
	r.ProductDetails = nil
}

func (r *Record) UpdatePaymentInfo(info PaymentInfo) {
	if info.InvoiceID == "" || info.InvoiceNumber == "" || info.PaymentURL == "" || info.Status == "" {
		log.Printf("order %s: payment info has missing fields: %+v", r.SessionID, info)
	}
	r.PaymentURL = info.PaymentURL
	r.InvoiceID = info.InvoiceID
	r.InvoiceNumber = info.InvoiceNumber
	r.PaymentStatus = info.Status
	r.PaymentInfoCollected = true
	r.Status = StatusApproved
}

// NextRequiredStep reports the first ordering stage that still needs
// input. Placement is required to leave the design stage but not for
// overall completeness.
func (r *Record) NextRequiredStep() Step {
	switch {
	case !r.ProductSelected:
		return StepProductSelection
	case !r.DesignUploaded || !r.PlacementSelected:
		return StepDesignPlacement
	case !r.QuantitiesCollected:
		return StepQuantityCollection
	case !r.CustomerInfoCollected:
		return StepCustomerInformation
	default:
		return StepComplete
	}
}

func (r *Record) IsComplete() bool {
	return r.ProductSelected && r.DesignUploaded && r.QuantitiesCollected && r.CustomerInfoCollected
}

func (r *Record) Touch(now time.Time) {
	r.LastActive = now
}

func (r *Record) syncDesignMirror() {
	if len(r.Designs) == 0 {
		return
	}
	last := r.Designs[len(r.Designs)-1]
	r.DesignPath = last.StoragePath
	r.DesignFilename = last.Filename
	r.Placement = last.Placement
	r.PreviewURL = last.PreviewURL
}

// ToRecord serializes the full order into a plain document for
// persistence.
func (r *Record) ToRecord() map[string]any {
	raw, err := json.Marshal(r)
	if err != nil {
		log.Printf("order %s: failed to serialize record: %v", r.SessionID, err)
		return map[string]any{"session_id": r.SessionID}
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		log.Printf("order %s: failed to rebuild record document: %v", r.SessionID, err)
		return map[string]any{"session_id": r.SessionID}
	}
	return doc
}

// FromRecord hydrates an order from a persisted document. Documents in
// the older nested-group naming convention are migrated onto canonical
// fields first, and the logo count invariant is re-validated.
func FromRecord(doc map[string]any) *Record {
	if doc == nil {
		return New("")
	}
	doc = migrateLegacyRecord(doc)
	raw, err := json.Marshal(doc)
	rec := &Record{}
	if err == nil {
		if uerr := json.Unmarshal(raw, rec); uerr != nil {
			log.Printf("order hydration: unrecognized record shape: %v", uerr)
		}
	}
	if rec.Status == "" {
		rec.Status = StatusInProgress
	}
	if rec.Sizes == nil {
		rec.Sizes = map[string]int{}
	}
	RepairLogoCount(rec)
	return rec
}
