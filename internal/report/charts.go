package report

import (
	"fmt"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// Palette.
const (
	colorNavy  = "#1D3557"
	colorRed   = "#E63946"
	colorSteel = "#457B9D"
	colorTeal  = "#A8DADC"
	colorGold  = "#F4A261"
)

func newPage(title string) *components.Page {
	page := components.NewPage()
	page.PageTitle = title
	page.SetLayout(components.PageFlexLayout)
	return page
}

func baseOpts(title, subtitle string) []charts.GlobalOpts {
	return []charts.GlobalOpts{
		charts.WithInitializationOpts(opts.Initialization{Width: "900px", Height: "560px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
	}
}

func barItem(v float64, color string) opts.BarData {
	return opts.BarData{Value: math.Round(v), ItemStyle: &opts.ItemStyle{Color: color}}
}

func valueLabels() charts.SeriesOpts {
	return charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "right"})
}

// horizontalBar lays cats out on the y axis, first entry at the bottom.
func horizontalBar(title, subtitle string, cats []string, extra ...charts.GlobalOpts) *charts.Bar {
	global := append(baseOpts(title, subtitle),
		charts.WithXAxisOpts(opts.XAxis{Type: "value"}),
		charts.WithYAxisOpts(opts.YAxis{Type: "category", Data: cats}),
	)
	bar := charts.NewBar()
	bar.SetGlobalOptions(append(global, extra...)...)
	return bar
}

func truncateLabel(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}

// 01: two horizontal panels sharing the category axis.
func categoryVolumeChart(views []CategoryVolume) *components.Page {
	cats := make([]string, len(views))
	volumes := make([]opts.BarData, len(views))
	demand := make([]opts.BarData, len(views))
	for i, v := range views {
		cats[i] = v.Category
		volumes[i] = barItem(float64(v.Courses), colorNavy)
		demand[i] = barItem(v.AvgEnrollment, colorSteel)
	}

	left := horizontalBar("Courses Offered", "Category overview: course volume vs learner demand", cats)
	left.AddSeries("Number of courses", volumes, valueLabels())

	right := horizontalBar("Avg Learner Demand", "Average learners per course", cats)
	right.AddSeries("Avg learners per course", demand, valueLabels())

	page := newPage("Category Overview: Course Volume vs Learner Demand")
	page.AddCharts(left, right)
	return page
}

// 02: average enrollment and bucket distribution, free against paid.
func freeVsPaidChart(fp FreePaid) *components.Page {
	avg := charts.NewBar()
	avg.SetGlobalOptions(baseOpts("Average Enrollment", "Free vs paid courses")...)
	avg.SetXAxis([]string{
		fmt.Sprintf("Free courses (%d)", fp.FreeCourses),
		fmt.Sprintf("Paid courses (%d)", fp.PaidCourses),
	}).AddSeries("Avg learners per course", []opts.BarData{
		barItem(fp.FreeAvg, colorTeal),
		barItem(fp.PaidAvg, colorRed),
	}, charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}))

	free := make([]opts.BarData, len(BucketLabels))
	paid := make([]opts.BarData, len(BucketLabels))
	for i := range BucketLabels {
		free[i] = barItem(float64(fp.FreeBuckets[i]), colorTeal)
		paid[i] = barItem(float64(fp.PaidBuckets[i]), colorRed)
	}
	dist := charts.NewBar()
	dist.SetGlobalOptions(baseOpts("Enrollment Distribution", "Number of courses per enrollment band")...)
	dist.SetXAxis(BucketLabels).
		AddSeries("Free", free).
		AddSeries("Paid", paid)

	page := newPage("Free vs Paid Courses: Enrollment & Revenue Opportunity")
	page.AddCharts(avg, dist)
	return page
}

// barWithLine draws counts as bars on the left axis and an average as a
// line on a second axis.
func barWithLine(title, subtitle, xName string, labels []string, counts, averages []float64, lineColor string) *charts.Bar {
	bars := make([]opts.BarData, len(counts))
	for i, c := range counts {
		bars[i] = barItem(c, colorNavy)
	}
	line := make([]opts.LineData, len(averages))
	for i, a := range averages {
		line[i] = opts.LineData{Value: math.Round(a)}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(append(baseOpts(title, subtitle),
		charts.WithXAxisOpts(opts.XAxis{Name: xName}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Number of courses", Type: "value"}),
	)...)
	bar.ExtendYAxis(opts.YAxis{Name: "Avg learners per course", Type: "value"})
	bar.SetXAxis(labels).AddSeries("# Courses", bars,
		charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}))

	avg := charts.NewLine()
	avg.SetXAxis(labels).AddSeries("Avg enrollment", line,
		charts.WithLineChartOpts(opts.LineChart{YAxisIndex: 1}),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: lineColor}),
		charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
	)
	bar.Overlap(avg)
	return bar
}

// 03: volume and demand per whole-number price.
func pricePointChart(points []PricePoint) *components.Page {
	labels := make([]string, len(points))
	counts := make([]float64, len(points))
	avgs := make([]float64, len(points))
	for i, p := range points {
		labels[i] = fmt.Sprintf("£%d", p.Price)
		counts[i] = float64(p.Courses)
		avgs[i] = p.AvgEnrollment
	}
	page := newPage("Price Point Strategy")
	page.AddCharts(barWithLine("Price Point Strategy", "Volume & learner response", "Price point",
		labels, counts, avgs, colorGold))
	return page
}

// 04: volume and demand per course length.
func durationChart(points []DurationPoint) *components.Page {
	labels := make([]string, len(points))
	counts := make([]float64, len(points))
	avgs := make([]float64, len(points))
	for i, p := range points {
		labels[i] = fmt.Sprintf("%dw", p.Weeks)
		counts[i] = float64(p.Courses)
		avgs[i] = p.AvgEnrollment
	}
	page := newPage("Optimal Course Length")
	page.AddCharts(barWithLine("Optimal Course Length", "Duration vs learner engagement", "Course duration",
		labels, counts, avgs, colorRed))
	return page
}

// 05: total reach and per-course efficiency of the leading partners.
func partnerChart(partners []PartnerReach) *components.Page {
	n := len(partners)
	names := make([]string, n)
	totals := make([]opts.BarData, n)
	avgs := make([]opts.BarData, n)
	// Ascending so the largest partner sits at the top of a horizontal chart.
	for i, p := range partners {
		j := n - 1 - i
		names[j] = truncateLabel(p.Partner, 28)
		totals[j] = barItem(p.Total, colorNavy)
		avgs[j] = barItem(p.AvgEnrollment, colorGold)
	}

	reach := horizontalBar("Total Reach", "Total learners enrolled", names)
	reach.AddSeries("Total learners", totals, valueLabels())

	eff := horizontalBar("Per-Course Efficiency", "Average learners per course", names)
	eff.AddSeries("Avg learners per course", avgs, valueLabels())

	page := newPage("Partner Performance: Total Reach vs Per-Course Efficiency")
	page.AddCharts(reach, eff)
	return page
}

// 06: supply, demand and pricing per level.
func levelChart(levels []LevelStat) *components.Page {
	colors := []string{colorTeal, colorSteel, colorNavy}
	panel := func(title, series string, value func(LevelStat) float64) *charts.Bar {
		data := make([]opts.BarData, len(levels))
		for i, l := range levels {
			data[i] = barItem(value(l), colors[i%len(colors)])
		}
		b := charts.NewBar()
		b.SetGlobalOptions(baseOpts(title, "")...)
		b.SetXAxis(Levels).AddSeries(series, data,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}))
		return b
	}

	page := newPage("Difficulty Level Strategy: Supply, Demand & Pricing")
	page.AddCharts(
		panel("Courses Offered", "Number of courses", func(l LevelStat) float64 { return float64(l.Courses) }),
		panel("Avg Learner Enrollment", "Avg learners", func(l LevelStat) float64 { return l.AvgEnrollment }),
		panel("Avg Price (£)", "Avg paid price", func(l LevelStat) float64 { return l.AvgPaidPrice }),
	)
	return page
}

// 07: mean rating per category with the overall mean marked.
func ratingChart(s RatingSummary) *components.Page {
	cats := make([]string, len(s.Categories))
	data := make([]opts.BarData, len(s.Categories))
	for i, c := range s.Categories {
		cats[i] = fmt.Sprintf("%s (%d rated)", c.Category, c.Rated)
		color := colorSteel
		if c.Category == s.Leader {
			color = colorRed
		}
		data[i] = opts.BarData{Value: math.Round(c.Mean*100) / 100, ItemStyle: &opts.ItemStyle{Color: color}}
	}

	bar := horizontalBar("Learner Satisfaction by Category", "Average star rating", cats,
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Min: "dataMin"}),
	)
	bar.AddSeries("Avg rating", data,
		valueLabels(),
		charts.WithMarkLineNameXAxisItemOpts(opts.MarkLineNameXAxisItem{
			Name:  fmt.Sprintf("Overall avg (%.2f)", s.OverallMean),
			XAxis: math.Round(s.OverallMean*100) / 100,
		}),
	)

	page := newPage("Learner Satisfaction by Category")
	page.AddCharts(bar)
	return page
}

// 08: demand against satisfaction per category, bubble size by volume.
func opportunityChart(m OpportunityMap) *components.Page {
	data := make([]opts.ScatterData, len(m.Points))
	for i, p := range m.Points {
		data[i] = opts.ScatterData{
			Name:       p.Category,
			Value:      []interface{}{math.Round(p.AvgEnrollment), math.Round(p.AvgRating*100) / 100, p.Volume},
			SymbolSize: bubbleSize(p.Volume),
		}
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "1000px", Height: "640px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Strategic Opportunity Map",
			Subtitle: "Satisfaction vs learner demand; bubble size = number of courses offered",
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "item"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Avg learners per course", Type: "value"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Avg star rating", Type: "value", Min: "dataMin"}),
	)
	scatter.AddSeries("Categories", data,
		charts.WithItemStyleOpts(opts.ItemStyle{Color: colorSteel}),
		charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top", Formatter: "{b}"}),
		charts.WithMarkLineNameXAxisItemOpts(opts.MarkLineNameXAxisItem{Name: "Median demand", XAxis: math.Round(m.MedianEnrollment)}),
		charts.WithMarkLineNameYAxisItemOpts(opts.MarkLineNameYAxisItem{Name: "Median rating", YAxis: math.Round(m.MedianRating*100) / 100}),
	)

	page := newPage("Strategic Opportunity Map")
	page.AddCharts(scatter)
	return page
}

func bubbleSize(volume int) int {
	return max(8, min(80, int(math.Sqrt(float64(volume)*8)*3)))
}

// 09: the enrollment leaderboard, largest at the top.
func topCoursesChart(top []TopCourse) *components.Page {
	n := len(top)
	titles := make([]string, n)
	data := make([]opts.BarData, n)
	for i, c := range top {
		j := n - 1 - i
		titles[j] = truncateLabel(c.Title, 42)
		color := colorNavy
		if i == 0 {
			color = colorRed
		}
		data[j] = opts.BarData{
			Name:      truncateLabel(c.Partner, 22),
			Value:     math.Round(c.Enrolled),
			ItemStyle: &opts.ItemStyle{Color: color},
		}
	}

	bar := horizontalBar("Top Courses by Total Enrollment", "Label: learners | partner", titles,
		charts.WithInitializationOpts(opts.Initialization{Width: "1100px", Height: "680px"}),
	)
	bar.AddSeries("Total learners", data,
		charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "right", Formatter: "{c}  |  {b}"}))

	page := newPage("Top Courses by Total Enrollment")
	page.AddCharts(bar)
	return page
}

// 10: paid courses by rating and enrollment, coloured by price, with the
// least-squares trend.
func premiumChart(p Premium) *components.Page {
	data := make([]opts.ScatterData, len(p.Points))
	minPrice, maxPrice := math.Inf(1), math.Inf(-1)
	for i, pt := range p.Points {
		data[i] = opts.ScatterData{
			Name:       truncateLabel(pt.Title, 30),
			Value:      []interface{}{pt.Rating, math.Round(pt.Enrolled), pt.Price},
			SymbolSize: 12,
		}
		minPrice = math.Min(minPrice, pt.Price)
		maxPrice = math.Max(maxPrice, pt.Price)
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "1000px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Premium Course Quality",
			Subtitle: "Rating vs enrollment, paid courses only",
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "item"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Star rating", Type: "value", Min: "dataMin"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Total learners enrolled", Type: "value"}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Calculable: opts.Bool(true),
			Dimension:  "2",
			Min:        float32(minPrice),
			Max:        float32(maxPrice),
			Text:       []string{"Price (£)"},
			InRange:    &opts.VisualMapInRange{Color: []string{"#FFFFB2", "#FD8D3C", "#BD0026"}},
		}),
	)
	scatter.AddSeries("Paid courses", data)

	if p.HasTrend {
		trend := charts.NewLine()
		trend.AddSeries("Trend", []opts.LineData{
			{Value: []interface{}{p.Trend[0].X, math.Round(p.Trend[0].Y)}},
			{Value: []interface{}{p.Trend[1].X, math.Round(p.Trend[1].Y)}},
		},
			charts.WithItemStyleOpts(opts.ItemStyle{Color: colorRed}),
			charts.WithLineStyleOpts(opts.LineStyle{Type: "dashed", Color: colorRed}),
		)
		scatter.Overlap(trend)
	}

	page := newPage("Premium Course Quality")
	page.AddCharts(scatter)
	return page
}
