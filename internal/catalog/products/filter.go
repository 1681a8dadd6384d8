package products

import (
	"net/url"
	"strconv"
	"time"
)

// ListFilter carries the optional product list filters. Absent filters impose
// no constraint; present filters narrow the result by conjunction.
type ListFilter struct {
	Title     string
	VariantID *int64
	PriceFrom *float64
	PriceTo   *float64
	Date      *time.Time
	Page      int
}

// ParseListFilter reads filters from list query parameters. Unparsable
// numeric or date values are treated as absent.
func ParseListFilter(q url.Values) ListFilter {
	f := ListFilter{Title: q.Get("title"), Page: 1}

	if raw := q.Get("variant"); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil && id > 0 {
			f.VariantID = &id
		}
	}
	if raw := q.Get("price_from"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			f.PriceFrom = &v
		}
	}
	if raw := q.Get("price_to"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			f.PriceTo = &v
		}
	}
	if raw := q.Get("date"); raw != "" {
		if d, err := time.Parse("2006-01-02", raw); err == nil {
			f.Date = &d
		}
	}
	if page, err := strconv.Atoi(q.Get("page")); err == nil && page > 0 {
		f.Page = page
	}
	return f
}

// HasPriceRange reports whether the inclusive price range applies. Both
// bounds must be present; a single-sided bound is a no-op filter.
func (f ListFilter) HasPriceRange() bool {
	return f.PriceFrom != nil && f.PriceTo != nil
}

// VariantParam echoes the variant filter back into the search form.
func (f ListFilter) VariantParam() string {
	if f.VariantID == nil {
		return ""
	}
	return strconv.FormatInt(*f.VariantID, 10)
}

// PriceFromParam echoes the lower price bound back into the search form.
func (f ListFilter) PriceFromParam() string {
	if f.PriceFrom == nil {
		return ""
	}
	return strconv.FormatFloat(*f.PriceFrom, 'f', -1, 64)
}

// PriceToParam echoes the upper price bound back into the search form.
func (f ListFilter) PriceToParam() string {
	if f.PriceTo == nil {
		return ""
	}
	return strconv.FormatFloat(*f.PriceTo, 'f', -1, 64)
}

// DateParam echoes the creation-date filter back into the search form.
func (f ListFilter) DateParam() string {
	if f.Date == nil {
		return ""
	}
	return f.Date.Format("2006-01-02")
}

// whereClause composes the SQL conditions for the filter. Child-table filters
// use EXISTS so the product set stays deduplicated without DISTINCT.
func (f ListFilter) whereClause() (string, []any) {
	clause := " WHERE 1=1"
	args := []any{}
	argPos := 0

	next := func() string {
		argPos++
		return "$" + strconv.Itoa(argPos)
	}

	if f.Title != "" {
		clause += " AND p.title ILIKE " + next()
		args = append(args, "%"+f.Title+"%")
	}
	if f.VariantID != nil {
		clause += " AND EXISTS (SELECT 1 FROM product_variants pv WHERE pv.product_id = p.id AND pv.variant_id = " + next() + ")"
		args = append(args, *f.VariantID)
	}
	if f.HasPriceRange() {
		from := next()
		to := next()
		clause += " AND EXISTS (SELECT 1 FROM product_variant_prices pvp WHERE pvp.product_id = p.id AND pvp.price BETWEEN " + from + " AND " + to + ")"
		args = append(args, *f.PriceFrom, *f.PriceTo)
	}
	if f.Date != nil {
		clause += " AND p.created_at::date = " + next() + "::date"
		args = append(args, f.Date.Format("2006-01-02"))
	}
	return clause, args
}
