package filter

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apitype "github.com/clockwise-hq/clockwise/pkg/apis/attendance/v1"
)

// LinkOperator determines how to chain multiple filters together, 'AND' and 'OR'
// are supported.
type LinkOperator string

const (
	LinkOperatorAnd LinkOperator = "and"
	LinkOperatorOr  LinkOperator = "or"
)

// Operator defines an operator used for filter items such as equals, contains, etc,
// as well as the arithmetic operators like ==, !=, >, etc.
type Operator string

const (
	OperatorContains   Operator = "contains"
	OperatorEquals     Operator = "equals"
	OperatorStartsWith Operator = "starts with"
	OperatorEndsWith   Operator = "ends with"
	OperatorIsEmpty    Operator = "is empty"
	OperatorIsNotEmpty Operator = "is not empty"

	OperatorArithmeticEquals              Operator = "="
	OperatorArithmeticNotEquals           Operator = "!="
	OperatorArithmeticGreaterThan         Operator = ">"
	OperatorArithmeticGreaterThanOrEquals Operator = ">="
	OperatorArithmeticLessThan            Operator = "<"
	OperatorArithmeticLessThanOrEquals    Operator = "<="
)

// Filter is a collection of FilterItem, with a link operator. It is used to chain
// filters together, for example: where origin equals imported and time_of_day > 480.
type Filter struct {
	Items        []FilterItem `json:"items"`
	LinkOperator LinkOperator `json:"linkOperator"`
}

// FilterItem is an individual filter consisting of a field, operator,
// value and a not boolean that negates the operator.
type FilterItem struct {
	Field    string   `json:"columnField"`
	Not      bool     `json:"not"`
	Operator Operator `json:"operatorValue"`
	Value    string   `json:"value"`
}

// Filterable is anything that can be filtered; it reports the type of its
// columns so operators can be translated correctly, and acts as the
// whitelist of fields a caller may reference.
type Filterable interface {
	GetFieldType(param string) apitype.ColumnType
}

func (f FilterItem) orFilterToSQL(db *gorm.DB, filterable Filterable) *gorm.DB { //nolint
	switch f.Operator {
	case OperatorContains:
		// "contains" is an overloaded operator: 1) see if an array field contains an item,
		// 2) string contains a substring, so we need to know the field type.
		switch filterable.GetFieldType(f.Field) {
		case apitype.ColumnTypeArray:
			if f.Not {
				db = db.Or(fmt.Sprintf("? != ALL(%s)", f.Field), f.Value)
			} else {
				db = db.Or(fmt.Sprintf("? = ANY(%s)", f.Field), f.Value)
			}
		default:
			if f.Not {
				db = db.Or(fmt.Sprintf("%q NOT LIKE ?", f.Field), fmt.Sprintf("%%%s%%", f.Value))
			} else {
				db = db.Or(fmt.Sprintf("%q LIKE ?", f.Field), fmt.Sprintf("%%%s%%", f.Value))
			}
		}
	case OperatorEquals, OperatorArithmeticEquals:
		if f.Not {
			db = db.Or(fmt.Sprintf("%q != ?", f.Field), f.Value)
		} else {
			db = db.Or(fmt.Sprintf("%q = ?", f.Field), f.Value)
		}
	case OperatorArithmeticGreaterThan:
		if f.Not {
			db = db.Or(fmt.Sprintf("%q <= ?", f.Field), f.Value)
		} else {
			db = db.Or(fmt.Sprintf("%q > ?", f.Field), f.Value)
		}
	case OperatorArithmeticGreaterThanOrEquals:
		if f.Not {
			db = db.Or(fmt.Sprintf("%q < ?", f.Field), f.Value)
		} else {
			db = db.Or(fmt.Sprintf("%q >= ?", f.Field), f.Value)
		}
	case OperatorArithmeticLessThan:
		if f.Not {
			db = db.Or(fmt.Sprintf("%q >= ?", f.Field), f.Value)
		} else {
			db = db.Or(fmt.Sprintf("%q < ?", f.Field), f.Value)
		}
	case OperatorArithmeticLessThanOrEquals:
		if f.Not {
			db = db.Or(fmt.Sprintf("%q > ?", f.Field), f.Value)
		} else {
			db = db.Or(fmt.Sprintf("%q <= ?", f.Field), f.Value)
		}
	case OperatorArithmeticNotEquals:
		if f.Not {
			db = db.Or(fmt.Sprintf("%q = ?", f.Field), f.Value)
		} else {
			db = db.Or(fmt.Sprintf("%q <> ?", f.Field), f.Value)
		}
	case OperatorStartsWith:
		if f.Not {
			db = db.Or(fmt.Sprintf("%q NOT LIKE ?", f.Field), fmt.Sprintf("%s%%", f.Value))
		} else {
			db = db.Or(fmt.Sprintf("%q LIKE ?", f.Field), fmt.Sprintf("%s%%", f.Value))
		}
	case OperatorEndsWith:
		if f.Not {
			db = db.Or(fmt.Sprintf("%q NOT LIKE ?", f.Field), fmt.Sprintf("%%%s", f.Value))
		} else {
			db = db.Or(fmt.Sprintf("%q LIKE ?", f.Field), fmt.Sprintf("%%%s", f.Value))
		}
	case OperatorIsEmpty:
		if f.Not {
			db = db.Or(fmt.Sprintf("%q != ?", f.Field), nil)
		} else {
			db = db.Or(fmt.Sprintf("%q = ?", f.Field), nil)
		}
	case OperatorIsNotEmpty:
		if f.Not {
			db = db.Or(fmt.Sprintf("%q = ?", f.Field), nil)
		} else {
			db = db.Or(fmt.Sprintf("%q != ?", f.Field), nil)
		}
	}
	return db
}

func (f FilterItem) andFilterToSQL(db *gorm.DB, filterable Filterable) *gorm.DB { //nolint
	switch f.Operator {
	case OperatorContains:
		switch filterable.GetFieldType(f.Field) {
		case apitype.ColumnTypeArray:
			if f.Not {
				db = db.Not(fmt.Sprintf("? = ANY(%s)", f.Field), f.Value)
			} else {
				db = db.Where(fmt.Sprintf("? = ANY(%s)", f.Field), f.Value)
			}
		default:
			if f.Not {
				db = db.Not(fmt.Sprintf("%q LIKE ?", f.Field), fmt.Sprintf("%%%s%%", f.Value))
			} else {
				db = db.Where(fmt.Sprintf("%q LIKE ?", f.Field), fmt.Sprintf("%%%s%%", f.Value))
			}
		}
	case OperatorEquals, OperatorArithmeticEquals:
		if f.Not {
			db = db.Not(fmt.Sprintf("%q = ?", f.Field), f.Value)
		} else {
			db = db.Where(fmt.Sprintf("%q = ?", f.Field), f.Value)
		}
	case OperatorArithmeticGreaterThan:
		if f.Not {
			db = db.Not(fmt.Sprintf("%q > ?", f.Field), f.Value)
		} else {
			db = db.Where(fmt.Sprintf("%q > ?", f.Field), f.Value)
		}
	case OperatorArithmeticGreaterThanOrEquals:
		if f.Not {
			db = db.Not(fmt.Sprintf("%q >= ?", f.Field), f.Value)
		} else {
			db = db.Where(fmt.Sprintf("%q >= ?", f.Field), f.Value)
		}
	case OperatorArithmeticLessThan:
		if f.Not {
			db = db.Not(fmt.Sprintf("%q < ?", f.Field), f.Value)
		} else {
			db = db.Where(fmt.Sprintf("%q < ?", f.Field), f.Value)
		}
	case OperatorArithmeticLessThanOrEquals:
		if f.Not {
			db = db.Not(fmt.Sprintf("%q <= ?", f.Field), f.Value)
		} else {
			db = db.Where(fmt.Sprintf("%q <= ?", f.Field), f.Value)
		}
	case OperatorArithmeticNotEquals:
		if f.Not {
			db = db.Not(fmt.Sprintf("%q <> ?", f.Field), f.Value)
		} else {
			db = db.Where(fmt.Sprintf("%q <> ?", f.Field), f.Value)
		}
	case OperatorStartsWith:
		if f.Not {
			db = db.Not(fmt.Sprintf("%q LIKE ?", f.Field), fmt.Sprintf("%s%%", f.Value))
		} else {
			db = db.Where(fmt.Sprintf("%q LIKE ?", f.Field), fmt.Sprintf("%s%%", f.Value))
		}
	case OperatorEndsWith:
		if f.Not {
			db = db.Not(fmt.Sprintf("%q LIKE ?", f.Field), fmt.Sprintf("%%%s", f.Value))
		} else {
			db = db.Where(fmt.Sprintf("%q LIKE ?", f.Field), fmt.Sprintf("%%%s", f.Value))
		}
	case OperatorIsEmpty:
		if f.Not {
			db = db.Not(fmt.Sprintf("%q = ?", f.Field), nil)
		} else {
			db = db.Where(fmt.Sprintf("%q = ?", f.Field), nil)
		}
	case OperatorIsNotEmpty:
		if f.Not {
			db = db.Where(fmt.Sprintf("%q = ?", f.Field), nil)
		} else {
			db = db.Not(fmt.Sprintf("%q = ?", f.Field), nil)
		}
	}

	return db
}

type FilterOptions struct {
	Filter    *Filter
	SortField string
	Sort      apitype.Sort
	Limit     int
}

// FilterOptionsFromRequest parses the filter, limit, and sort query params.
func FilterOptionsFromRequest(req *http.Request, defaultSortField string, defaultSort apitype.Sort) (*FilterOptions, error) {
	filterOpts := &FilterOptions{}
	queryFilter := req.URL.Query().Get("filter")
	filter := &Filter{}
	if queryFilter != "" {
		if err := json.Unmarshal([]byte(queryFilter), filter); err != nil {
			return filterOpts, fmt.Errorf("could not unmarshal filter: %w", err)
		}
	}
	filterOpts.Filter = filter

	limitParam := req.URL.Query().Get("limit")
	if limitParam == "" {
		filterOpts.Limit = 0
	} else {
		limit, err := strconv.Atoi(limitParam)
		if err != nil {
			return filterOpts, fmt.Errorf("error parsing limit param: %s", err)
		}
		filterOpts.Limit = limit
	}

	sortField := req.URL.Query().Get("sortField")
	sort := apitype.Sort(req.URL.Query().Get("sort"))
	if sortField == "" {
		sortField = defaultSortField
	}
	if sort == "" {
		sort = defaultSort
	}
	filterOpts.Sort = sort
	filterOpts.SortField = sortField
	return filterOpts, nil
}

// FilterableDBResult applies the filter options to a query in progress.
// Fields not known to the filterable are rejected before touching SQL.
func FilterableDBResult(dbClient *gorm.DB, filterOpts *FilterOptions, filterable Filterable) (*gorm.DB, error) {
	for _, item := range filterOpts.Filter.Items {
		if filterable.GetFieldType(item.Field) == apitype.ColumnTypeUnknown {
			return nil, fmt.Errorf("%s: unknown filter field", item.Field)
		}
	}

	q := filterOpts.Filter.ToSQL(dbClient, filterable)
	if filterOpts.Limit > 0 {
		q = q.Limit(filterOpts.Limit)
	}

	if filterable.GetFieldType(filterOpts.SortField) == apitype.ColumnTypeUnknown {
		return nil, fmt.Errorf("%s: unknown sort field", filterOpts.SortField)
	}
	q = q.Order(clause.OrderByColumn{Column: clause.Column{Name: filterOpts.SortField}, Desc: filterOpts.Sort == apitype.SortDescending})

	return q, nil
}

func (filters Filter) ToSQL(db *gorm.DB, filterable Filterable) *gorm.DB {
	for _, f := range filters.Items {
		if filters.LinkOperator == LinkOperatorAnd || filters.LinkOperator == "" {
			db = f.andFilterToSQL(db, filterable)
		} else if filters.LinkOperator == LinkOperatorOr {
			db = f.orFilterToSQL(db, filterable)
		}
	}

	return db
}
