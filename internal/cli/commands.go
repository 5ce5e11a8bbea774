package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.infra.cloudera.com/CAI/MLOpsHub/internal/datasource"
)

func (c *CLI) loginCommand() *cobra.Command {
	var username, password string
	var clientCredentials bool
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Start a session at the identity broker",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if clientCredentials {
				return c.session.LoginClientCredentials(cmd.Context())
			}
			if username == "" {
				return fmt.Errorf("--username is required")
			}
			if password == "" {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && err != io.EOF {
					return errors.Wrap(err, "reading password")
				}
				password = strings.TrimRight(line, "\r\n")
			}
			if err := c.session.Login(cmd.Context(), username, password); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "logged in as %s\n", username)
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "User name")
	cmd.Flags().StringVar(&password, "password", "", "Password, read from stdin when empty")
	cmd.Flags().BoolVar(&clientCredentials, "client-credentials", false, "Log in as the client (needs IDENTITY_CLIENT_SECRET)")
	return cmd
}

func (c *CLI) logoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session and forget its tokens",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.session.Logout(cmd.Context())
		},
	}
}

func (c *CLI) datasetsCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "datasets", Short: "Browse datasets"}

	var opts datasource.ListDatasetsOptions
	list := &cobra.Command{
		Use:  "list",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			datasets, err := c.store.ListDatasets(cmd.Context(), opts)
			if err != nil {
				return err
			}
			return c.print(datasets)
		},
	}
	list.Flags().StringVar(&opts.Search, "search", "", "Name filter")
	list.Flags().StringVar(&opts.Type, "type", "", "Dataset type filter")
	list.Flags().IntVar(&opts.Page, "page", 0, "Page number")
	list.Flags().IntVar(&opts.PageSize, "page-size", 0, "Page size")

	get := &cobra.Command{
		Use:  "get ID",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dataset, err := c.store.GetDataset(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return c.print(dataset)
		},
	}

	cmd.AddCommand(list, get)
	return cmd
}

func (c *CLI) experimentsCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "experiments", Short: "Browse tracked experiments"}

	var opts datasource.ListExperimentsOptions
	list := &cobra.Command{
		Use:  "list",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			experiments, err := c.store.ListExperiments(cmd.Context(), opts)
			if err != nil {
				return err
			}
			return c.print(experiments)
		},
	}
	list.Flags().IntVar(&opts.MaxResults, "max-results", 0, "Page size")
	list.Flags().StringVar(&opts.PageToken, "page-token", "", "Token of the page to fetch")

	get := &cobra.Command{
		Use:  "get ID",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			experiment, err := c.store.GetExperiment(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return c.print(experiment)
		},
	}

	cmd.AddCommand(list, get)
	return cmd
}

func (c *CLI) runsCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "runs", Short: "Browse experiment runs"}

	var opts datasource.ListRunsOptions
	list := &cobra.Command{
		Use:  "list",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runs, err := c.store.ListRuns(cmd.Context(), opts)
			if err != nil {
				return err
			}
			return c.print(runs)
		},
	}
	list.Flags().StringVar(&opts.ExperimentId, "experiment", "", "Experiment id")
	list.Flags().StringVar(&opts.Status, "status", "", "Run status filter")
	list.Flags().IntVar(&opts.MaxResults, "max-results", 0, "Page size")
	list.Flags().StringVar(&opts.PageToken, "page-token", "", "Token of the page to fetch")

	get := &cobra.Command{
		Use:  "get ID",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			run, err := c.store.GetRun(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return c.print(run)
		},
	}

	cmd.AddCommand(list, get)
	return cmd
}

func (c *CLI) artifactsCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "artifacts", Short: "Browse and download run artifacts"}

	var path string
	tree := &cobra.Command{
		Use:  "tree RUN",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tree, err := datasource.ArtifactTree(cmd.Context(), c.store, args[0], path)
			if err != nil {
				return err
			}
			return c.print(tree)
		},
	}
	tree.Flags().StringVar(&path, "path", "", "Directory to list, the run's root when empty")

	var output string
	get := &cobra.Command{
		Use:  "get RUN PATH",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := c.store.StreamArtifact(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			defer content.Close()

			if output == "" || output == "-" {
				_, err = io.Copy(cmd.OutOrStdout(), content)
				return err
			}
			file, err := c.fs.Create(output)
			if err != nil {
				return errors.WithStack(err)
			}
			defer file.Close()
			_, err = io.Copy(file, content)
			return errors.Wrapf(err, "writing %s", output)
		},
	}
	get.Flags().StringVarP(&output, "output", "o", "", "Destination file, stdout when empty")

	cmd.AddCommand(tree, get)
	return cmd
}

func (c *CLI) modelsCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "models", Short: "Browse registered models"}

	var opts datasource.ListModelsOptions
	list := &cobra.Command{
		Use:  "list",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			models, err := c.store.ListModels(cmd.Context(), opts)
			if err != nil {
				return err
			}
			return c.print(models)
		},
	}
	list.Flags().StringVar(&opts.Search, "search", "", "Name filter")
	list.Flags().IntVar(&opts.MaxResults, "max-results", 0, "Page size")
	list.Flags().StringVar(&opts.PageToken, "page-token", "", "Token of the page to fetch")

	get := &cobra.Command{
		Use:  "get NAME",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			model, err := c.store.GetModel(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return c.print(model)
		},
	}

	cmd.AddCommand(list, get)
	return cmd
}

func (c *CLI) servicesCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "services", Short: "Operate inference services"}

	var opts datasource.ListInferenceServicesOptions
	list := &cobra.Command{
		Use:  "list",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			services, err := c.store.ListInferenceServices(cmd.Context(), opts)
			if err != nil {
				return err
			}
			return c.print(services)
		},
	}
	list.Flags().StringVar(&opts.Status, "status", "", "Service status filter")

	get := &cobra.Command{
		Use:  "get ID",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			service, err := c.store.GetInferenceService(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return c.print(service)
		},
	}

	start := &cobra.Command{
		Use:  "start ID",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			service, err := c.store.StartInferenceService(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return c.print(service)
		},
	}

	stop := &cobra.Command{
		Use:  "stop ID",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			service, err := c.store.StopInferenceService(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return c.print(service)
		},
	}

	cmd.AddCommand(list, get, start, stop)
	return cmd
}

func (c *CLI) entrypointsCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "entrypoints", Short: "Browse and invoke entrypoints"}

	var opts datasource.ListEntrypointsOptions
	list := &cobra.Command{
		Use:  "list",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entrypoints, err := c.store.ListEntrypoints(cmd.Context(), opts)
			if err != nil {
				return err
			}
			return c.print(entrypoints)
		},
	}
	list.Flags().StringVar(&opts.InferenceServiceId, "service", "", "Inference service id")
	list.Flags().StringVar(&opts.Status, "status", "", "Entrypoint status filter")

	get := &cobra.Command{
		Use:  "get ID",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entrypoint, err := c.store.GetEntrypoint(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return c.print(entrypoint)
		},
	}

	var data string
	invoke := &cobra.Command{
		Use:   "invoke PATH",
		Short: "Send a JSON payload to an entrypoint and print the answer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := c.readPayload(data)
			if err != nil {
				return err
			}
			answer, err := c.store.InvokeEntrypoint(cmd.Context(), args[0], payload)
			var ierr *datasource.InvocationError
			if errors.As(err, &ierr) {
				fmt.Fprintln(cmd.OutOrStdout(), string(ierr.Body))
				return fmt.Errorf("entrypoint answered %d", ierr.StatusCode)
			}
			if err != nil {
				return err
			}
			var pretty interface{}
			if json.Unmarshal(answer, &pretty) != nil {
				_, err = cmd.OutOrStdout().Write(answer)
				return err
			}
			return c.print(pretty)
		},
	}
	invoke.Flags().StringVar(&data, "data", "{}", "JSON payload, or @file to read it from a file")

	cmd.AddCommand(list, get, invoke)
	return cmd
}

// readPayload returns data as JSON, reading it from a file when it starts with @.
func (c *CLI) readPayload(data string) (json.RawMessage, error) {
	payload := []byte(data)
	if strings.HasPrefix(data, "@") {
		content, err := afero.ReadFile(c.fs, strings.TrimPrefix(data, "@"))
		if err != nil {
			return nil, errors.WithStack(err)
		}
		payload = content
	}
	if !json.Valid(payload) {
		return nil, fmt.Errorf("payload is not valid JSON")
	}
	return payload, nil
}
