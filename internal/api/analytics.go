package api

import (
	"sort"
	"time"
)

// TopMealsLimit is how many meals Summarize ranks.
const TopMealsLimit = 5

// Analytics is the body of GET /api/analytics.
type Analytics struct {
	Stats     Stats       `json:"stats"`
	ChartData []Sale      `json:"chartData"`
	TopMeals  []MealSales `json:"topMeals"`
}

// Stats counts orders per status and sums revenue. Cancelled orders never
// count towards revenue.
type Stats struct {
	Total        int     `json:"total"`
	New          int     `json:"new"`
	Preparing    int     `json:"preparing"`
	Ready        int     `json:"ready"`
	Delivered    int     `json:"delivered"`
	Cancelled    int     `json:"cancelled"`
	TodayRevenue float64 `json:"todayRevenue"`
	MonthRevenue float64 `json:"monthRevenue"`
}

// Sale is one delivered order of the current month.
type Sale struct {
	ID    int64     `json:"id"`
	At    time.Time `json:"at"`
	Total float64   `json:"total"`
}

// MealSales is the quantity sold of one meal and what it brought in.
type MealSales struct {
	Name    string  `json:"name"`
	Count   int     `json:"count"`
	Revenue float64 `json:"revenue"`
}

// RevenueTime is when o counts as earned: its completion time, or its
// creation time while it is still open.
func (o Order) RevenueTime() time.Time {
	if o.CompletedAt != nil {
		return *o.CompletedAt
	}
	return o.CreatedAt
}

func periodStarts(now time.Time) (day, month time.Time) {
	day = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	month = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return day, month
}

// Revenue sums the totals of non-cancelled orders earned since the start of
// now's day and of its month.
func Revenue(orders []Order, now time.Time) (today, month float64) {
	dayStart, monthStart := periodStarts(now)
	for _, o := range orders {
		if o.Status == StatusCancelled {
			continue
		}
		at := o.RevenueTime()
		if !at.Before(monthStart) {
			month += o.Total
		}
		if !at.Before(dayStart) {
			today += o.Total
		}
	}
	return today, month
}

// Summarize computes the dashboard figures over orders. Day and month
// boundaries are taken in now's location.
func Summarize(orders []Order, now time.Time) Analytics {
	_, month := periodStarts(now)

	out := Analytics{ChartData: []Sale{}, TopMeals: []MealSales{}}
	out.Stats.TodayRevenue, out.Stats.MonthRevenue = Revenue(orders, now)
	meals := make(map[string]*MealSales)
	for _, o := range orders {
		out.Stats.Total++
		switch o.Status {
		case StatusNew:
			out.Stats.New++
		case StatusPreparing:
			out.Stats.Preparing++
		case StatusReady:
			out.Stats.Ready++
		case StatusDelivered:
			out.Stats.Delivered++
		case StatusCancelled:
			out.Stats.Cancelled++
			continue
		}

		if at := o.RevenueTime(); o.Status == StatusDelivered && !at.Before(month) {
			out.ChartData = append(out.ChartData, Sale{ID: o.ID, At: at, Total: o.Total})
		}
		for _, item := range o.Items {
			m := meals[item.Name]
			if m == nil {
				m = &MealSales{Name: item.Name}
				meals[item.Name] = m
			}
			m.Count += item.Quantity
			m.Revenue += item.Price * float64(item.Quantity)
		}
	}

	sort.Slice(out.ChartData, func(i, j int) bool { return out.ChartData[i].At.Before(out.ChartData[j].At) })
	for _, m := range meals {
		out.TopMeals = append(out.TopMeals, *m)
	}
	sort.Slice(out.TopMeals, func(i, j int) bool {
		if out.TopMeals[i].Count != out.TopMeals[j].Count {
			return out.TopMeals[i].Count > out.TopMeals[j].Count
		}
		return out.TopMeals[i].Name < out.TopMeals[j].Name
	})
	if len(out.TopMeals) > TopMealsLimit {
		out.TopMeals = out.TopMeals[:TopMealsLimit]
	}
	return out
}
