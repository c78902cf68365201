package main

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/newscheck/backend/internal/config"
	"github.com/newscheck/backend/internal/textclass"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "trainer",
		Short:         "Train and inspect the news classifier",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(newTrainCmd())
	return root
}

type trainOptions struct {
	data     string
	out      string
	testSize float64
	seed     int64
}

func newTrainCmd() *cobra.Command {
	var opts trainOptions

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Fit the vectorizer and classifier and save the model artifact",
		Long: `Fit the TF-IDF vectorizer and logistic regression on a labelled dataset,
print accuracy and a per-class report for the held-out split, and write the
model artifact. Without --data the built-in sample headlines are used.

Dataset files are CSV with a "text" and a "label" column (0/fake, 1/real).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			logger := logrus.New()
			logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
			logger.SetOutput(cmd.ErrOrStderr())
			config.ConfigureLogger(logger, cfg.Log)
			entry := logger.WithField("service", "newscheck-trainer")

			if !cmd.Flags().Changed("out") {
				opts.out = cfg.Model.ArtifactPath
			}
			trainCfg := cfg.Model.TrainConfig()
			if cmd.Flags().Changed("test-size") {
				trainCfg.TestSize = opts.testSize
			}
			if cmd.Flags().Changed("seed") {
				trainCfg.Seed = opts.seed
			}

			return runTrain(cmd.OutOrStdout(), entry, opts, trainCfg)
		},
	}

	cmd.Flags().StringVar(&opts.data, "data", "", "glob of CSV dataset files (supports **)")
	cmd.Flags().StringVar(&opts.out, "out", "", "artifact output path (default from config)")
	cmd.Flags().Float64Var(&opts.testSize, "test-size", 0.2, "fraction of examples held out for evaluation")
	cmd.Flags().Int64Var(&opts.seed, "seed", 42, "shuffle seed")
	return cmd
}

func runTrain(w io.Writer, logger *logrus.Entry, opts trainOptions, cfg textclass.TrainConfig) error {
	examples := textclass.SampleDataset()
	if opts.data != "" {
		loaded, err := textclass.LoadExamples(opts.data)
		if err != nil {
			return fmt.Errorf("load dataset: %w", err)
		}
		examples = loaded
	}
	logger.WithField("examples", len(examples)).Info("Training classifier")

	res, err := textclass.Train(examples, cfg)
	if err != nil {
		return fmt.Errorf("train: %w", err)
	}

	store := textclass.NewFileArtifactStore(opts.out)
	if err := store.Save(res.Artifact); err != nil {
		return fmt.Errorf("save artifact: %w", err)
	}

	fmt.Fprintf(w, "Train examples: %d  Test examples: %d  Vocabulary: %d\n",
		res.TrainSize, res.TestSize, res.Artifact.Vocabulary.Size())
	fmt.Fprintf(w, "Accuracy: %.4f\n\n", res.Report.Accuracy)
	fmt.Fprintln(w, "Classification Report:")
	fmt.Fprintln(w, res.Report.String())
	fmt.Fprintf(w, "Model saved to %s\n", store.Path())

	logger.WithFields(logrus.Fields{
		"path":      store.Path(),
		"converged": res.Artifact.Model.Converged,
		"iters":     res.Artifact.Model.Iterations,
	}).Info("Model artifact written")
	return nil
}
