package main

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/trezcool/suara/core"
	"github.com/trezcool/suara/core/learner"
	"github.com/trezcool/suara/core/submission"
)

// addLearner updates or creates a learner.Learner
func (cl *commandLine) addLearner(c *cli.Context) error {
	svc, err := cl.learners()
	if err != nil {
		return err
	}

	data := learner.NewLearner{Email: c.String("email"), Region: c.String("region")}
	if err = data.Validate(cl.validate); err != nil {
		return err
	}
	lrn, err := svc.Upsert(c.Context, data)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "learner %s <%s> region=%q\n", lrn.ID, lrn.Email, lrn.Region)
	return nil
}

func (cl *commandLine) listLearners(c *cli.Context) error {
	svc, err := cl.learners()
	if err != nil {
		return err
	}

	learners, err := svc.Query(c.Context, parseOrdering(c.String("ordering")))
	if err != nil {
		return err
	}
	for _, lrn := range learners {
		fmt.Fprintf(c.App.Writer, "%s\t%s\t%s\t%s\n",
			lrn.ID, lrn.Email, lrn.Region, submission.FormatAmount(lrn.Earnings))
	}
	return nil
}

// parseOrdering parses "field1,-field2" into DB orderings ("-" for descending).
func parseOrdering(val string) []core.DBOrdering {
	var orderings []core.DBOrdering
	for _, field := range strings.Split(val, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		orderings = append(orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
	return orderings
}
