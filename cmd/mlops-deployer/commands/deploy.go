package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/careops/mlops-deployer/internal/artifact"
	"github.com/careops/mlops-deployer/internal/config"
	"github.com/careops/mlops-deployer/internal/dao/rundao"
	"github.com/careops/mlops-deployer/internal/datasets"
	"github.com/careops/mlops-deployer/internal/di"
	"github.com/careops/mlops-deployer/internal/frontend"
	"github.com/careops/mlops-deployer/internal/policy"
	"github.com/careops/mlops-deployer/internal/prompt"
	"github.com/careops/mlops-deployer/internal/report"
	"github.com/careops/mlops-deployer/internal/runner"
	"github.com/careops/mlops-deployer/internal/services"
	"github.com/careops/mlops-deployer/internal/stack"
)

// deployState is the shared state threaded through the deploy pipeline steps.
type deployState struct {
	cfg       *config.Config
	quick     bool
	assumeYes bool

	identity  *services.IdentityService
	deployer  *stack.Deployer
	validator *policy.Validator
	s3        *services.S3Service
	lambda    *services.LambdaService
	glue      *services.GlueService
	amplify   *services.AmplifyService
	secrets   *services.SecretsManagerService
	params    services.ParameterStore
	iam       *services.IAMService
	runs      *rundao.DAO

	runSK   string
	outputs stack.Outputs
	summary *report.Summary
}

// DeployCommand provisions the full platform: infrastructure, CI/CD, data
// pipeline, Lambda code, dataset, and frontend.
func DeployCommand(logger *zerolog.Logger) *cli.Command {
	flags := append(commonFlags(), githubFlags()...)
	flags = append(flags, dirFlags()...)
	flags = append(flags,
		&cli.BoolFlag{
			Name:  "quick",
			Usage: "skip stack provisioning and only refresh Lambda handler code",
		},
		&cli.BoolFlag{
			Name:    "yes",
			Aliases: []string{"y"},
			Usage:   "run non-interactively, skipping the dataset prompt",
		},
		&cli.StringFlag{
			Name:  "summary-file",
			Usage: "path for the deployment summary",
			Value: report.DefaultFileName,
		},
	)

	return &cli.Command{
		Name:  "deploy",
		Usage: "Deploy the platform to an environment",
		Flags: flags,
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			container, err := newContainer(cfg)
			if err != nil {
				return err
			}
			ctx := logger.WithContext(c.Context)
			return deploy(ctx, container, cfg, c.Bool("quick"), c.Bool("yes"), c.String("summary-file"))
		},
	}
}

func deploy(ctx context.Context, container di.Container, cfg *config.Config, quick, assumeYes bool, summaryPath string) error {
	logger := zerolog.Ctx(ctx)

	state := &deployState{
		cfg:       cfg,
		quick:     quick,
		assumeYes: assumeYes,
		identity:  di.MustGet[*services.IdentityService](container),
		deployer:  di.MustGet[*stack.Deployer](container),
		validator: di.MustGet[*policy.Validator](container),
		s3:        di.MustGet[*services.S3Service](container),
		lambda:    di.MustGet[*services.LambdaService](container),
		glue:      di.MustGet[*services.GlueService](container),
		amplify:   di.MustGet[*services.AmplifyService](container),
		secrets:   di.MustGet[*services.SecretsManagerService](container),
		params:    di.MustGet[services.ParameterStore](container),
		iam:       di.MustGet[*services.IAMService](container),
		runs:      di.MustGet[*rundao.DAO](container),
		outputs:   stack.Outputs{},
		summary: &report.Summary{
			Env:       cfg.Env,
			Region:    cfg.Region,
			Quick:     quick,
			StartedAt: time.Now(),
		},
	}

	// Lambda code refresh is best effort in a full run, but it is the whole
	// point of a quick one.
	lambdaPolicy := runner.WarnContinue
	if quick {
		lambdaPolicy = runner.Fatal
	}

	fullRun := func(s *deployState) (bool, string) {
		if s.quick {
			return false, "quick mode"
		}
		return true, ""
	}
	githubRun := func(s *deployState) (bool, string) {
		if s.quick {
			return false, "quick mode"
		}
		if !s.cfg.HasGitHub() {
			return false, "GITHUB_TOKEN not set"
		}
		return true, ""
	}

	steps := []runner.Step[deployState]{
		{Name: "resolve-identity", Policy: runner.Fatal, Run: stepResolveIdentity},
		{Name: "record-run", Policy: runner.WarnContinue, Run: stepRecordRun},
		{Name: "validate-templates", Policy: runner.Fatal, Ready: fullRun, Run: stepValidateTemplates},
		{Name: "infrastructure-stack", Policy: runner.Fatal, Ready: fullRun, Run: stepInfrastructure},
		{Name: "cicd-stack", Policy: runner.WarnContinue, Ready: githubRun, Run: stepCICD},
		{Name: "data-pipeline-stack", Policy: runner.Fatal, Ready: fullRun, Run: stepDataPipeline},
		{Name: "update-lambda-code", Policy: lambdaPolicy, Run: stepUpdateLambda},
		{
			Name:   "upload-dataset",
			Policy: runner.WarnContinue,
			Ready: func(s *deployState) (bool, string) {
				if s.quick {
					return false, "quick mode"
				}
				if s.assumeYes {
					return false, "non-interactive run"
				}
				return true, ""
			},
			Run: stepUploadDataset,
		},
		{Name: "frontend", Policy: runner.WarnContinue, Ready: githubRun, Run: stepFrontend},
		{Name: "publish-outputs", Policy: runner.WarnContinue, Ready: fullRun, Run: stepPublishOutputs},
	}

	results, runErr := runner.Run(ctx, state, steps)

	for _, r := range results {
		state.summary.StepLines = append(state.summary.StepLines, fmt.Sprintf("%-11s %s", r.Status, r.Name))
	}

	finishRun(ctx, state, runErr)

	if runErr != nil {
		return runErr
	}

	if err := state.summary.Write(summaryPath); err != nil {
		logger.Warn().Err(err).Msg("Failed to write summary")
	} else {
		fmt.Printf("\nSummary written to %s\n", summaryPath)
	}
	fmt.Println(state.summary.Digest())
	return nil
}

func stepResolveIdentity(ctx context.Context, s *deployState) error {
	id, err := s.identity.Resolve(ctx)
	if err != nil {
		return err
	}
	s.cfg.AccountID = id.AccountID
	s.summary.AccountID = id.AccountID
	zerolog.Ctx(ctx).Info().
		Str("account_id", id.AccountID).
		Str("arn", id.ARN).
		Msg("Resolved caller identity")
	return nil
}

func stepRecordRun(ctx context.Context, s *deployState) error {
	sk := rundao.NewSK()
	_, err := s.runs.Create(ctx, rundao.CreateInput{
		Base:      s.cfg.BaseName,
		Env:       s.cfg.Env,
		SK:        sk,
		AccountID: s.cfg.AccountID,
		Region:    s.cfg.Region,
		Quick:     s.quick,
	})
	if err != nil {
		return err
	}
	s.runSK = sk
	s.summary.RunID = sk
	return nil
}

func stepValidateTemplates(ctx context.Context, s *deployState) error {
	files := []string{templateInfrastructure, templateDataPipeline}
	if s.cfg.HasGitHub() {
		files = append(files, templateCICD, templateFrontend)
	}

	for _, file := range files {
		body, err := readTemplate(s.cfg, file)
		if err != nil {
			return err
		}
		result, err := s.validator.ValidateTemplateYAML(ctx, body, s.cfg.Env)
		if err != nil {
			return fmt.Errorf("failed to validate %s: %w", file, err)
		}
		if !result.Allowed {
			return fmt.Errorf("template %s violates platform policy: %s", file, strings.Join(result.Violations, "; "))
		}
	}
	return nil
}

func stepInfrastructure(ctx context.Context, s *deployState) error {
	body, err := readTemplate(s.cfg, templateInfrastructure)
	if err != nil {
		return err
	}

	name := s.cfg.InfrastructureStack()
	outputs, err := deployStack(ctx, s.deployer, name, body, map[string]string{
		"Environment":     s.cfg.Env,
		"BaseName":        s.cfg.BaseName,
		"DataBucketName":  s.cfg.DataBucket(),
		"ModelBucketName": s.cfg.ModelBucket(),
	})
	if err != nil {
		return err
	}
	s.outputs.Merge(outputs)
	s.summary.InfrastructureStack = name

	// The API endpoint and data bucket feed every later step; a stack that
	// completes without them is broken.
	if s.summary.APIEndpoint, err = outputs.Require("ApiEndpoint"); err != nil {
		return err
	}
	if s.summary.DataBucket, err = outputs.Require("DataBucketName"); err != nil {
		return err
	}
	s.summary.ModelBucket, _ = outputs.Get("ModelBucketName")
	return nil
}

func stepCICD(ctx context.Context, s *deployState) error {
	logger := zerolog.Ctx(ctx)

	if err := s.secrets.PutSecret(ctx, s.cfg.TokenSecretName(), s.cfg.GitHubToken); err != nil {
		return fmt.Errorf("failed to store github token: %w", err)
	}

	params := map[string]string{
		"Environment":     s.cfg.Env,
		"GitHubBranch":    s.cfg.GitHubBranch,
		"TokenSecretName": s.cfg.TokenSecretName(),
	}

	var roleArn string
	if s.cfg.GitHubRepo != "" {
		owner, repo, err := splitRepo(s.cfg.GitHubRepo)
		if err != nil {
			return err
		}
		if _, err := s.iam.EnsureGitHubOIDCProvider(ctx, s.cfg.AccountID); err != nil {
			return fmt.Errorf("failed to ensure OIDC provider: %w", err)
		}
		roleName := s.cfg.StackName("deploy-role")
		roleArn, err = s.iam.EnsureDeployRole(ctx, s.cfg.AccountID, roleName, owner, repo, s.cfg.BaseName)
		if err != nil {
			return fmt.Errorf("failed to ensure deploy role: %w", err)
		}
		params["GitHubRepo"] = s.cfg.GitHubRepo
	} else {
		logger.Warn().Msg("GITHUB_REPO not set, skipping OIDC deploy role")
	}

	body, err := readTemplate(s.cfg, templateCICD)
	if err != nil {
		return err
	}

	name := s.cfg.CICDStack()
	outputs, err := deployStack(ctx, s.deployer, name, body, params)
	if err != nil {
		return err
	}
	s.outputs.Merge(outputs)
	s.summary.CICDStack = name

	if roleArn != "" {
		owner, repo, _ := splitRepo(s.cfg.GitHubRepo)
		gh := services.NewGitHubService(s.cfg.GitHubToken)
		for secret, value := range map[string]string{
			"AWS_ROLE_ARN": roleArn,
			"AWS_REGION":   s.cfg.Region,
		} {
			if err := gh.PutSecret(ctx, owner, repo, secret, value); err != nil {
				return fmt.Errorf("failed to set repository secret %s: %w", secret, err)
			}
		}
		logger.Info().Str("repo", s.cfg.GitHubRepo).Msg("Repository secrets configured")
	}
	return nil
}

func stepDataPipeline(ctx context.Context, s *deployState) error {
	body, err := readTemplate(s.cfg, templateDataPipeline)
	if err != nil {
		return err
	}

	name := s.cfg.DataPipelineStack()
	outputs, err := deployStack(ctx, s.deployer, name, body, map[string]string{
		"Environment":     s.cfg.Env,
		"DataBucketName":  s.cfg.DataBucket(),
		"ModelBucketName": s.cfg.ModelBucket(),
	})
	if err != nil {
		return err
	}
	s.outputs.Merge(outputs)
	s.summary.DataPipelineStack = name
	s.summary.StateMachineArn, _ = outputs.Get("StateMachineArn")
	return nil
}

func stepUpdateLambda(ctx context.Context, s *deployState) error {
	logger := zerolog.Ctx(ctx)

	updated := 0
	var errs []error
	for _, h := range platformHandlers {
		path := filepath.Join(s.cfg.LambdaDir, h.File)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			logger.Warn().Str("handler", h.Short).Str("path", path).Msg("Handler source missing, skipping")
			continue
		}

		zipBytes, err := artifact.ZipFile(path, h.File)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", h.Short, err))
			continue
		}
		name := functionName(s.cfg, h.Short)
		sha, err := s.lambda.UpdateFunctionCode(ctx, name, zipBytes)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", h.Short, err))
			continue
		}
		logger.Info().Str("function", name).Str("code_sha256", sha).Msg("Updated function code")
		updated++
	}

	s.summary.LambdaResult = fmt.Sprintf("%d/%d handlers updated", updated, len(platformHandlers))
	if len(errs) > 0 {
		return fmt.Errorf("%d handler(s) failed: %w", len(errs), errors.Join(errs...))
	}
	if updated == 0 {
		return fmt.Errorf("no handler sources found under %s", s.cfg.LambdaDir)
	}
	return nil
}

func stepUploadDataset(ctx context.Context, s *deployState) error {
	logger := zerolog.Ctx(ctx)

	candidates, err := datasets.Discover(".", ".csv")
	if err != nil {
		return err
	}
	if len(candidates) == 0 {
		fmt.Println("No .csv files found in the working directory; upload a dataset later with upload-dataset.")
		return nil
	}

	labels := make([]string, 0, len(candidates))
	for _, c := range candidates {
		labels = append(labels, c.Label())
	}
	idx := prompt.Select(os.Stdin, os.Stdout, "Select a dataset to upload", labels)
	if idx == prompt.Skipped {
		fmt.Println("Dataset upload skipped.")
		return nil
	}

	chosen := candidates[idx]
	bucket := s.summary.DataBucket
	if bucket == "" {
		bucket = s.cfg.DataBucket()
	}
	key := "datasets/" + chosen.Name
	if err := s.s3.UploadFile(ctx, bucket, key, chosen.Path); err != nil {
		return err
	}
	s.summary.Dataset = key
	logger.Info().Str("bucket", bucket).Str("key", key).Msg("Dataset uploaded")

	// Kick off the ETL job so the dataset is queryable; a failed start is not
	// worth failing the upload over.
	if jobName, ok := s.outputs.Get("GlueJobName"); ok {
		runID, err := s.glue.StartJob(ctx, jobName, map[string]string{
			"--dataset_key": key,
			"--environment": s.cfg.Env,
		})
		if err != nil {
			logger.Warn().Err(err).Str("job", jobName).Msg("Failed to start ETL job")
		} else {
			logger.Info().Str("job", jobName).Str("run_id", runID).Msg("ETL job started")
		}
	}
	return nil
}

func stepFrontend(ctx context.Context, s *deployState) error {
	logger := zerolog.Ctx(ctx)

	body, err := readTemplate(s.cfg, templateFrontend)
	if err != nil {
		return err
	}

	name := s.cfg.FrontendStack()
	outputs, err := deployStack(ctx, s.deployer, name, body, map[string]string{
		"Environment":   s.cfg.Env,
		"WebBucketName": s.cfg.WebBucket(),
	})
	if err != nil {
		return err
	}
	s.outputs.Merge(outputs)
	s.summary.FrontendStack = name

	if s.summary.APIEndpoint == "" {
		return fmt.Errorf("no API endpoint available to configure the frontend")
	}
	if err := frontend.WriteEnv(s.cfg.FrontendDir, s.summary.APIEndpoint); err != nil {
		return err
	}
	if err := frontend.Build(ctx, s.cfg.FrontendDir, true); err != nil {
		return err
	}

	count, err := s.s3.UploadDir(ctx, s.cfg.WebBucket(), "", filepath.Join(s.cfg.FrontendDir, frontend.DistDir))
	if err != nil {
		return err
	}
	logger.Info().Int("files", count).Str("bucket", s.cfg.WebBucket()).Msg("Frontend assets uploaded")

	if appID, ok := outputs.Get("AmplifyAppId"); ok && appID != "" {
		jobID, err := s.amplify.StartRelease(ctx, appID, s.cfg.GitHubBranch)
		if err != nil {
			logger.Warn().Err(err).Str("app_id", appID).Msg("Failed to start hosting release")
		} else {
			logger.Info().Str("app_id", appID).Str("job_id", jobID).Msg("Hosting release started")
		}
	}

	s.summary.FrontendURL, _ = outputs.Get("FrontendURL")
	return nil
}

func stepPublishOutputs(ctx context.Context, s *deployState) error {
	return services.PublishOutputs(ctx, s.params, s.cfg.ParameterPrefix(), s.outputs)
}

// finishRun records the terminal run state. Best effort: the deployment
// outcome stands regardless.
func finishRun(ctx context.Context, s *deployState, runErr error) {
	if s.runSK == "" {
		return
	}

	input := rundao.FinishInput{
		PK:          rundao.NewPK(s.cfg.BaseName, s.cfg.Env),
		SK:          s.runSK,
		Status:      rundao.RunStatusSuccess,
		APIEndpoint: s.summary.APIEndpoint,
		DataBucket:  s.summary.DataBucket,
		Dataset:     s.summary.Dataset,
		CICD:        s.summary.CICDStack,
		Frontend:    s.summary.FrontendURL,
	}
	if runErr != nil {
		input.Status = rundao.RunStatusFailed
		msg := runErr.Error()
		input.ErrorMsg = &msg
	}

	if err := s.runs.Finish(ctx, input); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("Failed to record run outcome")
	}
}
