package streams

// Shared WooCommerce sub-objects.

func metaDataType() *Schema {
	return ArrayType(ObjectType(
		Prop("id", IntegerType()),
		Prop("key", StringType()),
		Prop("value", AnyType()),
	))
}

func addressType(withContact bool) *Schema {
	props := []Property{
		Prop("first_name", StringType()),
		Prop("last_name", StringType()),
		Prop("company", StringType()),
		Prop("address_1", StringType()),
		Prop("address_2", StringType()),
		Prop("city", StringType()),
		Prop("state", StringType()),
		Prop("postcode", StringType()),
		Prop("country", StringType()),
	}
	if withContact {
		props = append(props, Prop("email", StringType()), Prop("phone", StringType()))
	}
	return ObjectType(props...)
}

func taxesType() *Schema {
	return ArrayType(ObjectType(
		Prop("id", IntegerType()),
		Prop("total", StringType()),
		Prop("subtotal", StringType()),
	))
}

func lineItemsType() *Schema {
	return ArrayType(ObjectType(
		Prop("id", IntegerType()),
		Prop("name", StringType()),
		Prop("product_id", IntegerType()),
		Prop("variation_id", IntegerType()),
		Prop("quantity", IntegerType()),
		Prop("tax_class", StringType()),
		Prop("subtotal", StringType()),
		Prop("subtotal_tax", StringType()),
		Prop("total", StringType()),
		Prop("total_tax", StringType()),
		Prop("taxes", taxesType()),
		Prop("meta_data", metaDataType()),
		Prop("sku", StringType()),
		Prop("price", NumberType()),
	))
}

func orderProperties() []Property {
	return []Property{
		Prop("id", IntegerType()),
		Prop("parent_id", IntegerType()),
		Prop("number", StringType()),
		Prop("order_key", StringType()),
		Prop("created_via", StringType()),
		Prop("version", StringType()),
		Prop("status", StringType()),
		Prop("currency", StringType()),
		Prop("date_created", DateTimeType()),
		Prop("date_created_gmt", DateTimeType()),
		Prop("date_modified", DateTimeType()),
		Prop("date_modified_gmt", DateTimeType()),
		Prop("discount_total", StringType()),
		Prop("discount_tax", StringType()),
		Prop("shipping_total", StringType()),
		Prop("shipping_tax", StringType()),
		Prop("cart_tax", StringType()),
		Prop("total", StringType()),
		Prop("total_tax", StringType()),
		Prop("prices_include_tax", BooleanType()),
		Prop("customer_id", IntegerType()),
		Prop("customer_ip_address", StringType()),
		Prop("customer_user_agent", StringType()),
		Prop("customer_note", StringType()),
		Prop("billing", addressType(true)),
		Prop("shipping", addressType(false)),
		Prop("payment_method", StringType()),
		Prop("payment_method_title", StringType()),
		Prop("transaction_id", StringType()),
		Prop("date_paid", DateTimeType()),
		Prop("date_paid_gmt", DateTimeType()),
		Prop("date_completed", DateTimeType()),
		Prop("date_completed_gmt", DateTimeType()),
		Prop("cart_hash", StringType()),
		Prop("meta_data", metaDataType()),
		Prop("line_items", lineItemsType()),
		Prop("tax_lines", ArrayType(ObjectType(
			Prop("id", IntegerType()),
			Prop("rate_code", StringType()),
			Prop("rate_id", IntegerType()),
			Prop("label", StringType()),
			Prop("compound", BooleanType()),
			Prop("tax_total", StringType()),
			Prop("shipping_tax_total", StringType()),
		))),
		Prop("shipping_lines", ArrayType(ObjectType(
			Prop("id", IntegerType()),
			Prop("method_title", StringType()),
			Prop("method_id", StringType()),
			Prop("total", StringType()),
			Prop("total_tax", StringType()),
			Prop("taxes", taxesType()),
		))),
		Prop("fee_lines", ArrayType(ObjectType(
			Prop("id", IntegerType()),
			Prop("name", StringType()),
			Prop("tax_class", StringType()),
			Prop("tax_status", StringType()),
			Prop("total", StringType()),
			Prop("total_tax", StringType()),
		))),
		Prop("coupon_lines", ArrayType(ObjectType(
			Prop("id", IntegerType()),
			Prop("code", StringType()),
			Prop("discount", StringType()),
			Prop("discount_tax", StringType()),
		))),
		Prop("refunds", ArrayType(ObjectType(
			Prop("id", IntegerType()),
			Prop("reason", StringType()),
			Prop("total", StringType()),
		))),
	}
}

func ordersSchema() *Schema {
	return RecordSchema(orderProperties()...)
}

func subscriptionsSchema() *Schema {
	props := append(orderProperties(),
		Prop("billing_period", StringType()),
		Prop("billing_interval", StringType()),
		Prop("start_date_gmt", DateTimeType()),
		Prop("trial_end_date_gmt", DateTimeType()),
		Prop("next_payment_date_gmt", DateTimeType()),
		Prop("last_payment_date_gmt", DateTimeType()),
		Prop("cancelled_date_gmt", DateTimeType()),
		Prop("end_date_gmt", DateTimeType()),
	)
	return RecordSchema(props...)
}

func productsSchema() *Schema {
	return RecordSchema(
		Prop("id", IntegerType()),
		Prop("name", StringType()),
		Prop("slug", StringType()),
		Prop("permalink", StringType()),
		Prop("date_created", DateTimeType()),
		Prop("date_created_gmt", DateTimeType()),
		Prop("date_modified", DateTimeType()),
		Prop("date_modified_gmt", DateTimeType()),
		Prop("type", StringType()),
		Prop("status", StringType()),
		Prop("featured", BooleanType()),
		Prop("catalog_visibility", StringType()),
		Prop("description", StringType()),
		Prop("short_description", StringType()),
		Prop("sku", StringType()),
		Prop("price", StringType()),
		Prop("regular_price", StringType()),
		Prop("sale_price", StringType()),
		Prop("date_on_sale_from", DateTimeType()),
		Prop("date_on_sale_to", DateTimeType()),
		Prop("on_sale", BooleanType()),
		Prop("purchasable", BooleanType()),
		Prop("total_sales", IntegerType()),
		Prop("virtual", BooleanType()),
		Prop("downloadable", BooleanType()),
		Prop("tax_status", StringType()),
		Prop("tax_class", StringType()),
		Prop("manage_stock", BooleanType()),
		Prop("stock_quantity", IntegerType()),
		Prop("stock_status", StringType()),
		Prop("backorders", StringType()),
		Prop("weight", StringType()),
		Prop("dimensions", dimensionsType()),
		Prop("shipping_class", StringType()),
		Prop("reviews_allowed", BooleanType()),
		Prop("average_rating", StringType()),
		Prop("rating_count", IntegerType()),
		Prop("parent_id", IntegerType()),
		Prop("categories", ArrayType(termType())),
		Prop("tags", ArrayType(termType())),
		Prop("images", ArrayType(imageType())),
		Prop("attributes", ArrayType(ObjectType(
			Prop("id", IntegerType()),
			Prop("name", StringType()),
			Prop("position", IntegerType()),
			Prop("visible", BooleanType()),
			Prop("variation", BooleanType()),
			Prop("options", ArrayType(StringType())),
		))),
		Prop("variations", ArrayType(IntegerType())),
		Prop("menu_order", IntegerType()),
		Prop("meta_data", metaDataType()),
	)
}

func dimensionsType() *Schema {
	return ObjectType(
		Prop("length", StringType()),
		Prop("width", StringType()),
		Prop("height", StringType()),
	)
}

func termType() *Schema {
	return ObjectType(
		Prop("id", IntegerType()),
		Prop("name", StringType()),
		Prop("slug", StringType()),
	)
}

func imageType() *Schema {
	return ObjectType(
		Prop("id", IntegerType()),
		Prop("date_created", DateTimeType()),
		Prop("date_modified", DateTimeType()),
		Prop("src", StringType()),
		Prop("name", StringType()),
		Prop("alt", StringType()),
	)
}

func productVariantsSchema() *Schema {
	return RecordSchema(
		Prop("id", IntegerType()),
		Prop("product_id", IntegerType()),
		Prop("date_created", DateTimeType()),
		Prop("date_created_gmt", DateTimeType()),
		Prop("date_modified", DateTimeType()),
		Prop("date_modified_gmt", DateTimeType()),
		Prop("description", StringType()),
		Prop("permalink", StringType()),
		Prop("sku", StringType()),
		Prop("price", StringType()),
		Prop("regular_price", StringType()),
		Prop("sale_price", StringType()),
		Prop("on_sale", BooleanType()),
		Prop("status", StringType()),
		Prop("purchasable", BooleanType()),
		Prop("virtual", BooleanType()),
		Prop("downloadable", BooleanType()),
		Prop("tax_status", StringType()),
		Prop("tax_class", StringType()),
		Prop("manage_stock", BooleanType()),
		Prop("stock_quantity", IntegerType()),
		Prop("stock_status", StringType()),
		Prop("backorders", StringType()),
		Prop("weight", StringType()),
		Prop("dimensions", dimensionsType()),
		Prop("shipping_class", StringType()),
		Prop("image", imageType()),
		Prop("attributes", ArrayType(ObjectType(
			Prop("id", IntegerType()),
			Prop("name", StringType()),
			Prop("option", StringType()),
		))),
		Prop("menu_order", IntegerType()),
		Prop("meta_data", metaDataType()),
	)
}

func couponsSchema() *Schema {
	return RecordSchema(
		Prop("id", IntegerType()),
		Prop("code", StringType()),
		Prop("amount", StringType()),
		Prop("date_created", DateTimeType()),
		Prop("date_created_gmt", DateTimeType()),
		Prop("date_modified", DateTimeType()),
		Prop("date_modified_gmt", DateTimeType()),
		Prop("discount_type", StringType()),
		Prop("description", StringType()),
		Prop("date_expires", DateTimeType()),
		Prop("date_expires_gmt", DateTimeType()),
		Prop("usage_count", IntegerType()),
		Prop("individual_use", BooleanType()),
		Prop("product_ids", ArrayType(IntegerType())),
		Prop("excluded_product_ids", ArrayType(IntegerType())),
		Prop("usage_limit", IntegerType()),
		Prop("usage_limit_per_user", IntegerType()),
		Prop("limit_usage_to_x_items", IntegerType()),
		Prop("free_shipping", BooleanType()),
		Prop("product_categories", ArrayType(IntegerType())),
		Prop("excluded_product_categories", ArrayType(IntegerType())),
		Prop("exclude_sale_items", BooleanType()),
		Prop("minimum_amount", StringType()),
		Prop("maximum_amount", StringType()),
		Prop("email_restrictions", ArrayType(StringType())),
		Prop("used_by", ArrayType(StringType())),
		Prop("meta_data", metaDataType()),
	)
}

func customersSchema() *Schema {
	return RecordSchema(
		Prop("id", IntegerType()),
		Prop("date_created", DateTimeType()),
		Prop("date_created_gmt", DateTimeType()),
		Prop("date_modified", DateTimeType()),
		Prop("date_modified_gmt", DateTimeType()),
		Prop("email", StringType()),
		Prop("first_name", StringType()),
		Prop("last_name", StringType()),
		Prop("role", StringType()),
		Prop("username", StringType()),
		Prop("billing", addressType(true)),
		Prop("shipping", addressType(false)),
		Prop("is_paying_customer", BooleanType()),
		Prop("avatar_url", StringType()),
		Prop("meta_data", metaDataType()),
	)
}

func storeSettingsSchema() *Schema {
	return RecordSchema(
		Prop("id", StringType()),
		Prop("label", StringType()),
		Prop("description", StringType()),
		Prop("type", StringType()),
		Prop("default", AnyType()),
		Prop("tip", StringType()),
		Prop("value", AnyType()),
		Prop("options", AnyType()),
	)
}

func orderNotesSchema() *Schema {
	return RecordSchema(
		Prop("id", IntegerType()),
		Prop("order_id", IntegerType()),
		Prop("author", StringType()),
		Prop("date_created", DateTimeType()),
		Prop("date_created_gmt", DateTimeType()),
		Prop("note", StringType()),
		Prop("customer_note", BooleanType()),
		Prop("added_by_user", BooleanType()),
	)
}

func orderRefundsSchema() *Schema {
	return RecordSchema(
		Prop("id", IntegerType()),
		Prop("order_id", IntegerType()),
		Prop("date_created", DateTimeType()),
		Prop("date_created_gmt", DateTimeType()),
		Prop("amount", StringType()),
		Prop("reason", StringType()),
		Prop("refunded_by", IntegerType()),
		Prop("refunded_payment", BooleanType()),
		Prop("meta_data", metaDataType()),
		Prop("line_items", lineItemsType()),
	)
}
