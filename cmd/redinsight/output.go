package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/elonfeng/redinsight/internal/insight"
	"github.com/elonfeng/redinsight/internal/store"
	"github.com/elonfeng/redinsight/pkg/engine"
)

const cliTitleLen = 36

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func comma(n int) string { return humanize.Comma(int64(n)) }

func short(s string) string {
	r := []rune(s)
	if len(r) <= cliTitleLen {
		return s
	}
	return string(r[:cliTitleLen]) + "…"
}

func printInsights(w io.Writer, insights []string) {
	if len(insights) == 0 {
		return
	}
	fmt.Fprintln(w)
	for _, line := range insights {
		fmt.Fprintln(w, line)
	}
}

func printAnalysis(w io.Writer, analysis string) {
	if analysis == "" {
		return
	}
	fmt.Fprintf(w, "\n%s\n", analysis)
}

func printReport(w io.Writer, res *insight.ReportResult) error {
	r := res.Report
	fmt.Fprintf(w, "「%s」 %d posts, %s likes, %s comments (avg engagement %.1f)\n\n",
		r.Keyword, r.TotalPosts, comma(r.TotalLikes), comma(r.TotalComments), r.AvgEngagement)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RANGE\tPOSTS\tSHARE")
	for _, b := range r.EngagementDistribution {
		fmt.Fprintf(tw, "%s\t%d\t%.1f%%\n", b.RangeLabel, b.Count, b.Percentage)
	}
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "HOT WORD\tCOUNT\tWEIGHT")
	for _, hw := range r.HotWords[:min(10, len(r.HotWords))] {
		fmt.Fprintf(tw, "%s\t%d\t%.2f\n", hw.Word, hw.Count, hw.Weight)
	}
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "QUALITY\tPOTENTIAL\tTITLE")
	for _, q := range r.QualityScores {
		fmt.Fprintf(tw, "%.1f\t%s\t%s\n", q.TotalScore, q.ViralPotential, short(q.PostTitle))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	printInsights(w, r.Insights)
	printAnalysis(w, res.Analysis)
	return nil
}

func printRanking(w io.Writer, r engine.RankingResult) error {
	fmt.Fprintf(w, "%s  %s\n\n", r.Title, r.Description)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tSCORE\tTREND\tLIKES\tCOMMENTS\tAUTHOR\tTITLE")
	for _, item := range r.Items {
		fmt.Fprintf(tw, "%d\t%.1f\t%s\t%s\t%s\t%s\t%s\n",
			item.Rank, item.Score, item.Trend, item.Post.Likes, item.Post.Comments,
			item.Post.Author, short(item.Post.Title))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\ntotal engagement %s, avg score %.2f\n", comma(r.TotalEngagement), r.AvgScore)
	return nil
}

func printOverview(w io.Writer, o engine.Overview) error {
	fmt.Fprintf(w, "%s  %s\n", o.Title, o.Description)
	for _, c := range o.Categories {
		fmt.Fprintf(w, "\n%s (%s)\n", c.Title, comma(c.TotalScore))
		for _, item := range c.TopItems {
			fmt.Fprintf(w, "  %d. %s  %s\n", item.Rank, short(item.Post.Title), item.Post.Likes)
		}
	}
	return nil
}

func printHistory(w io.Writer, snaps []store.RankingSnapshot) error {
	if len(snaps) == 0 {
		fmt.Fprintln(w, "no snapshots yet (build one with: redinsight ranking)")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCATEGORY\tITEMS\tENGAGEMENT\tAVG SCORE\tSAVED")
	for _, s := range snaps {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%.2f\t%s\n",
			s.ID, s.Category, s.ItemCount, comma(s.TotalEngagement), s.AvgScore,
			humanize.Time(time.Unix(0, s.CreatedAt)))
	}
	return tw.Flush()
}

func printCity(w io.Writer, a engine.CityAnalysis) error {
	fmt.Fprintf(w, "%s %s  %d posts, engagement %s (avg %.1f)\n",
		a.CityEmoji, a.City, a.TotalPosts, comma(a.TotalEngagement), a.AvgEngagement)
	if len(a.SpecialtiesMentioned) > 0 {
		fmt.Fprintf(w, "specialties: %s\n", strings.Join(a.SpecialtiesMentioned, "、"))
	}
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TOPIC\tPOSTS\tENGAGEMENT")
	for _, t := range a.HotTopics {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", t.Topic, t.Count, comma(t.Engagement))
	}
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "RELEVANCE\tLIKES\tTITLE")
	for _, p := range a.Posts {
		fmt.Fprintf(tw, "%.0f\t%s\t%s\n", p.RelevanceScore, p.Post.Likes, short(p.Post.Title))
	}
	return tw.Flush()
}

func printCities(w io.Writer, cities []engine.CityProfile) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CITY\tSLUG\tHOT TOPICS\tSPECIALTIES")
	for _, c := range cities {
		fmt.Fprintf(tw, "%s %s\t%s\t%s\t%s\n", c.Emoji, c.Name, c.Slug,
			strings.Join(c.HotTopics, "、"), strings.Join(c.Specialties, "、"))
	}
	return tw.Flush()
}

func printCityComparison(w io.Writer, c engine.RegionalComparison) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CITY\tPOSTS\tENGAGEMENT\tAVG\tTOP TOPICS")
	for _, row := range c.ComparisonData {
		fmt.Fprintf(tw, "%s %s\t%d\t%s\t%.1f\t%s\n", row.Emoji, row.City, row.TotalPosts,
			comma(row.TotalEngagement), row.AvgEngagement, strings.Join(row.TopTopics, "、"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	printInsights(w, c.Insights)
	return nil
}

func printTrendingCities(w io.Writer, topic string, heat []engine.CityHeat) error {
	fmt.Fprintf(w, "「%s」 by city\n\n", topic)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CITY\tPOSTS\tLIKES\tSAMPLE")
	for _, h := range heat {
		sample := ""
		if len(h.SamplePosts) > 0 {
			sample = h.SamplePosts[0]
		}
		fmt.Fprintf(tw, "%s %s\t%d\t%s\t%s\n", h.Emoji, h.City, h.PostsCount, comma(h.TotalEngagement), sample)
	}
	return tw.Flush()
}

func printComparison(w io.Writer, res *insight.CompareResult) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KEYWORD\tPOSTS\tLIKES\tCOMMENTS\tENGAGEMENT\tAVG")
	for _, c := range res.Comparison.ComparisonChart {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%.1f\n", c.Keyword, c.PostsCount,
			comma(c.TotalLikes), comma(c.TotalComments), comma(c.TotalEngagement), c.AvgEngagement)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	printInsights(w, res.Comparison.Insights)
	printAnalysis(w, res.Analysis)
	return nil
}
