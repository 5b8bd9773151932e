package order

// Migration for records persisted by the previous generation of the
// assistant, which grouped order fields into nested camelCase blocks
// (productInfo/designInfo/quantityInfo/customerInfo/paymentInfo).
// Recognized legacy keys are mapped onto canonical fields in one pass
// at hydration time; unknown keys are ignored.

func isLegacyRecord(doc map[string]any) bool {
	for _, key := range []string{"productInfo", "designInfo", "quantityInfo", "customerInfo", "paymentInfo", "shippingInfo"} {
		if _, ok := doc[key]; ok {
			return true
		}
	}
	return false
}

func migrateLegacyRecord(doc map[string]any) map[string]any {
	if !isLegacyRecord(doc) {
		return doc
	}

	out := map[string]any{}
	copyFirst(out, "session_id", doc, "sessionId", "session_id")
	copyFirst(out, "last_active", doc, "lastActive", "last_active")
	copyFirst(out, "status", doc, "status")

	if product := subDoc(doc, "productInfo"); product != nil {
		copyFirst(out, "product_selected", product, "selected", "productSelected")
		copyFirst(out, "price_per_item", product, "pricePerItem", "price_per_item")
		if details := subDoc(product, "details"); details != nil {
			out["product_details"] = migrateLegacyProduct(details)
		}
		if rejected, ok := product["rejected"].([]any); ok {
			migrated := make([]any, 0, len(rejected))
			for _, item := range rejected {
				if m, ok := item.(map[string]any); ok {
					migrated = append(migrated, migrateLegacyProduct(m))
				}
			}
			if len(migrated) > 0 {
				out["rejected_products"] = migrated
			}
		}
	}

	if design := subDoc(doc, "designInfo"); design != nil {
		copyFirst(out, "design_uploaded", design, "uploaded", "designUploaded")
		copyFirst(out, "logo_count", design, "logoCount", "logo_count")
		copyFirst(out, "placement_selected", design, "placementSelected", "placement_selected")
		if entries, ok := design["designs"].([]any); ok {
			migrated := make([]any, 0, len(entries))
			for _, item := range entries {
				if m, ok := item.(map[string]any); ok {
					migrated = append(migrated, migrateLegacyDesign(m))
				}
			}
			if len(migrated) > 0 {
				out["designs"] = migrated
			}
		}
	}

	if quantity := subDoc(doc, "quantityInfo"); quantity != nil {
		copyFirst(out, "quantities_collected", quantity, "collected", "quantitiesCollected")
		copyFirst(out, "total_quantity", quantity, "totalQuantity", "total_quantity")
		copyFirst(out, "sizes", quantity, "sizes")
	}

	if shipping := subDoc(doc, "shippingInfo"); shipping != nil {
		copyFirst(out, "express_shipping_percentage", shipping, "expressPercentage", "express_shipping_percentage")
		copyFirst(out, "express_shipping_charge", shipping, "expressCharge", "express_shipping_charge")
		copyFirst(out, "total_price", shipping, "totalPrice", "total_price")
	}

	if customer := subDoc(doc, "customerInfo"); customer != nil {
		copyFirst(out, "customer_info_collected", customer, "collected", "customerInfoCollected")
		copyFirst(out, "customer_name", customer, "name", "customerName")
		copyFirst(out, "shipping_address", customer, "address", "shippingAddress")
		copyFirst(out, "email", customer, "email")
		copyFirst(out, "received_by_date", customer, "receivedBy", "receivedByDate")
	}

	if payment := subDoc(doc, "paymentInfo"); payment != nil {
		copyFirst(out, "payment_info_collected", payment, "collected", "paymentInfoCollected")
		copyFirst(out, "payment_url", payment, "paymentUrl", "payment_url")
		copyFirst(out, "invoice_id", payment, "invoiceId", "invoice_id")
		copyFirst(out, "invoice_number", payment, "invoiceNumber", "invoice_number")
		copyFirst(out, "payment_status", payment, "status", "paymentStatus")
	}

	return out
}

func migrateLegacyProduct(details map[string]any) map[string]any {
	out := map[string]any{}
	copyFirst(out, "name", details, "name")
	copyFirst(out, "color", details, "color")
	copyFirst(out, "style", details, "style", "styleId")
	copyFirst(out, "price", details, "price")
	copyFirst(out, "category", details, "category")
	copyFirst(out, "image_url", details, "imageUrl", "image_url")
	copyFirst(out, "back_image_url", details, "backImageUrl", "back_image_url")
	return out
}

func migrateLegacyDesign(entry map[string]any) map[string]any {
	out := map[string]any{}
	copyFirst(out, "storage_path", entry, "storagePath", "storage_path")
	copyFirst(out, "filename", entry, "fileName", "filename")
	copyFirst(out, "file_type", entry, "fileType", "file_type")
	copyFirst(out, "side", entry, "side")
	copyFirst(out, "placement", entry, "placement")
	copyFirst(out, "preview_url", entry, "previewUrl", "preview_url")
	copyFirst(out, "has_logo", entry, "hasLogo", "has_logo")
	return out
}

func subDoc(doc map[string]any, key string) map[string]any {
	if sub, ok := doc[key].(map[string]any); ok {
		return sub
	}
	return nil
}

// copyFirst copies the first present source key onto dst[dstKey].
func copyFirst(dst map[string]any, dstKey string, src map[string]any, srcKeys ...string) {
	for _, key := range srcKeys {
		if value, ok := src[key]; ok {
			dst[dstKey] = value
			return
		}
	}
}
