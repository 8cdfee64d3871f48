package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/charlie0129/bmsdash/pkg/task"
)

func printTaskLine(cmd *cobra.Command, t task.Task) {
	cmd.Printf("  %-8s %s  %s\n", t.DisplayName(), bold("%-5s", t.Type), taskDetails(t))
}

// taskDetails lists the fields used by the task's type.
func taskDetails(t task.Task) string {
	s := ""
	if t.Type.HasField(task.FieldCCCP) {
		cccp := t.CCCP
		if cccp == "" {
			cccp = "N/A"
		}
		s += fmt.Sprintf("CC/CP %s  ", cccp)
	}
	if t.Type.HasField(task.FieldCVVoltage) {
		s += fmt.Sprintf("CV %g V  ", t.CVVoltage)
	}
	if t.Type.HasField(task.FieldCurrent) {
		s += fmt.Sprintf("current %g A  ", t.Current)
	}
	if t.Type.HasField(task.FieldVoltage) {
		s += fmt.Sprintf("voltage %g V  ", t.Voltage)
	}
	if t.Type.HasField(task.FieldCapacity) {
		s += fmt.Sprintf("capacity %g  ", t.Capacity)
	}
	return s + fmt.Sprintf("duration %d s", t.TimeSeconds)
}

func NewTaskCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "task",
		Short:   "Manage charge, discharge and idle tasks",
		GroupID: gTasks,
		Long: `Manage charge, discharge and idle tasks.

Tasks are records only. Starting a task acknowledges it, nothing is executed.`,
	}

	cmd.AddCommand(
		newTaskAddCommand(),
		&cobra.Command{
			Use:   "ls",
			Short: "List tasks",
			RunE: func(cmd *cobra.Command, _ []string) error {
				tasks, err := apiClient.GetTasks()
				if err != nil {
					return err
				}
				for _, t := range tasks {
					printTaskLine(cmd, t)
				}
				if len(tasks) == 0 {
					cmd.Println("No tasks.")
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "start [key]",
			Short: "Start a task",
			Args:  cobra.ExactArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				ret, err := apiClient.StartTask(args[0])
				if err != nil {
					return err
				}
				logrus.Info(ret)
				return nil
			},
		},
		&cobra.Command{
			Use:     "rm [key]",
			Aliases: []string{"delete"},
			Short:   "Delete a task",
			Args:    cobra.ExactArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				t, err := apiClient.DeleteTask(args[0])
				if err != nil {
					return err
				}
				logrus.Infof("deleted %s (%s)", t.DisplayName(), t.Type.Description())
				return nil
			},
		},
	)

	return cmd
}

func newTaskAddCommand() *cobra.Command {
	var t task.Task

	add := func(typ task.Type) func(*cobra.Command, []string) error {
		return func(_ *cobra.Command, _ []string) error {
			t.Type = typ
			added, err := apiClient.AddTask(t)
			if err != nil {
				return err
			}
			logrus.Infof("✅ Task %s added successfully!", added.Key)
			if _, ok := added.Setpoint(); !ok && typ.HasField(task.FieldCCCP) && added.CCCP != "" {
				logrus.Warnf("CC/CP value %q is not of the form 5A or 10W", added.CCCP)
			}
			return nil
		}
	}

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a task",
	}

	ccCV := &cobra.Command{
		Use:   "cc-cv",
		Short: "Add a " + task.CCCV.Description() + " task",
		Args:  cobra.NoArgs,
		RunE:  add(task.CCCV),
	}
	f := ccCV.Flags()
	f.StringVar(&t.CCCP, "cc-cp", "", "CC/CP value, e.g. 5A or 10W")
	f.Float64Var(&t.CVVoltage, "cv-voltage", 0, "CV voltage (V)")
	f.Float64Var(&t.Current, "current", 0, "current (A)")
	f.Float64Var(&t.Capacity, "capacity", 0, "capacity")
	f.IntVar(&t.TimeSeconds, "time", 1, "duration in seconds")

	idle := &cobra.Command{
		Use:   "idle",
		Short: "Add an " + task.Idle.Description() + " task",
		Args:  cobra.NoArgs,
		RunE:  add(task.Idle),
	}
	idle.Flags().IntVar(&t.TimeSeconds, "time", 1, "duration in seconds")

	ccCD := &cobra.Command{
		Use:   "cc-cd",
		Short: "Add a " + task.CCCD.Description() + " task",
		Args:  cobra.NoArgs,
		RunE:  add(task.CCCD),
	}
	f = ccCD.Flags()
	f.StringVar(&t.CCCP, "cc-cp", "", "CC/CP value, e.g. 5A or 10W")
	f.Float64Var(&t.Voltage, "voltage", 0, "voltage (V)")
	f.Float64Var(&t.Capacity, "capacity", 0, "capacity")
	f.IntVar(&t.TimeSeconds, "time", 1, "duration in seconds")

	cmd.AddCommand(ccCV, idle, ccCD)

	return cmd
}
