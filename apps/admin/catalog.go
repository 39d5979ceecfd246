package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/trezcool/suara/core/training"
)

func (cl *commandLine) catalogCheck(c *cli.Context) error {
	sched, err := cl.scheduler(c)
	if err != nil {
		return err
	}
	out := c.App.Writer
	catalog := sched.Catalog()

	fmt.Fprintf(out, "catalog: %d batches, %d stories\n", catalog.BatchCount(), catalog.TotalItemCount())
	for index := 1; index <= catalog.BatchCount(); index++ {
		items, err := catalog.ItemsInBatch(index)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "  batch %d: %d stories (%s)\n", index, len(items), joinIDs(items))
	}

	regions := sched.Regions().Regions()
	fmt.Fprintf(out, "regions: %d\n", len(regions))
	for _, rs := range regions {
		fmt.Fprintf(out, "  %s: batch %d\n", rs.Region, rs.StartBatch)
	}
	return nil
}

func (cl *commandLine) catalogSequence(c *cli.Context) error {
	sched, err := cl.scheduler(c)
	if err != nil {
		return err
	}
	out := c.App.Writer
	region := c.String("region")
	cl.checkRegion(out, sched.Regions(), region)

	batches := make([]string, 0)
	for _, index := range sched.Sequence(region) {
		batches = append(batches, strconv.Itoa(index))
	}
	fmt.Fprintf(out, "batches: %s\n", strings.Join(batches, " "))
	fmt.Fprintf(out, "stories: %s\n", joinIDs(sched.ItemSequence(region)))
	return nil
}

func (cl *commandLine) catalogNext(c *cli.Context) error {
	sched, err := cl.scheduler(c)
	if err != nil {
		return err
	}
	completed, err := parseIDs(c.String("completed"))
	if err != nil {
		return err
	}
	out := c.App.Writer
	region := c.String("region")
	cl.checkRegion(out, sched.Regions(), region)

	a := sched.Assign(region, completed)
	if a.AllCompleted {
		fmt.Fprintf(out, "all %d stories completed\n", a.TotalItemCount)
		return nil
	}
	fmt.Fprintf(out, "story %d %q (batch %d): %d/%d\n",
		a.Item.ID, a.Item.Title, a.Item.BatchIndex, a.CurrentOrdinal, a.TotalItemCount)
	return nil
}

// checkRegion warns about regions missing from the region map.
func (cl *commandLine) checkRegion(out io.Writer, regions *training.RegionMap, region string) {
	if region == "" || regions.IsKnown(region) {
		return
	}
	msg := fmt.Sprintf("region %q is not mapped, starting at batch %d", region, training.DefaultStartBatch)
	if suggestion, ok := regions.Suggest(region); ok {
		msg += fmt.Sprintf(" (did you mean %q?)", suggestion)
	}
	fmt.Fprintln(out, msg)
	cl.logger.Warn("unknown region", map[string]interface{}{"region": region})
}

func joinIDs(items []training.Item) string {
	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = strconv.Itoa(item.ID)
	}
	return strings.Join(ids, " ")
}

// parseIDs parses a comma-separated list of story ids.
func parseIDs(s string) (training.CompletedSet, error) {
	var ids []int
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		id, err := strconv.Atoi(field)
		if err != nil {
			return nil, errors.Errorf("invalid story id %q", field)
		}
		ids = append(ids, id)
	}
	return training.NewCompletedSet(ids...), nil
}
