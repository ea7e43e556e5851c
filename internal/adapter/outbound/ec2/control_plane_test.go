package ec2

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsec2 "github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/jonny/instance-bot/internal/domain/model"
	"github.com/jonny/instance-bot/pkg/metrics"
)

const testInstanceID = "i-0123456789abcdef0"

type fakeAPI struct {
	describeOut *awsec2.DescribeInstancesOutput
	describeErr error
	startErr    error
	stopErr     error

	describeIDs []string
	startIDs    []string
	stopIDs     []string
	sawDeadline bool
}

func (f *fakeAPI) DescribeInstances(ctx context.Context, in *awsec2.DescribeInstancesInput, _ ...func(*awsec2.Options)) (*awsec2.DescribeInstancesOutput, error) {
	_, f.sawDeadline = ctx.Deadline()
	f.describeIDs = append(f.describeIDs, in.InstanceIds...)
	if f.describeErr != nil {
		return nil, f.describeErr
	}
	return f.describeOut, nil
}

func (f *fakeAPI) StartInstances(_ context.Context, in *awsec2.StartInstancesInput, _ ...func(*awsec2.Options)) (*awsec2.StartInstancesOutput, error) {
	f.startIDs = append(f.startIDs, in.InstanceIds...)
	if f.startErr != nil {
		return nil, f.startErr
	}
	return &awsec2.StartInstancesOutput{}, nil
}

func (f *fakeAPI) StopInstances(_ context.Context, in *awsec2.StopInstancesInput, _ ...func(*awsec2.Options)) (*awsec2.StopInstancesOutput, error) {
	f.stopIDs = append(f.stopIDs, in.InstanceIds...)
	if f.stopErr != nil {
		return nil, f.stopErr
	}
	return &awsec2.StopInstancesOutput{}, nil
}

func describeOutput(state types.InstanceStateName, ip *string) *awsec2.DescribeInstancesOutput {
	return &awsec2.DescribeInstancesOutput{
		Reservations: []types.Reservation{{
			Instances: []types.Instance{{
				InstanceId:      aws.String(testInstanceID),
				State:           &types.InstanceState{Name: state},
				PublicIpAddress: ip,
			}},
		}},
	}
}

func testControlPlane(api *fakeAPI, m *metrics.Metrics) *ControlPlane {
	return NewControlPlane(api, Config{InstanceID: testInstanceID, CallTimeout: time.Second}, m)
}

// --- DescribeInstance ---

func TestDescribeInstance_Running(t *testing.T) {
	api := &fakeAPI{describeOut: describeOutput(types.InstanceStateNameRunning, aws.String("203.0.113.5"))}
	cp := testControlPlane(api, nil)

	inst, err := cp.DescribeInstance(context.Background())
	if err != nil {
		t.Fatalf("DescribeInstance: %v", err)
	}
	if inst.State != model.InstanceStateRunning {
		t.Errorf("state = %s, want running", inst.State)
	}
	if inst.PublicAddress != "203.0.113.5" {
		t.Errorf("address = %q", inst.PublicAddress)
	}
	if len(api.describeIDs) != 1 || api.describeIDs[0] != testInstanceID {
		t.Errorf("describe ids = %v", api.describeIDs)
	}
	if !api.sawDeadline {
		t.Error("expected describe call to carry a deadline")
	}
}

func TestDescribeInstance_StoppedNoAddress(t *testing.T) {
	api := &fakeAPI{describeOut: describeOutput(types.InstanceStateNameStopped, nil)}
	inst, err := testControlPlane(api, nil).DescribeInstance(context.Background())
	if err != nil {
		t.Fatalf("DescribeInstance: %v", err)
	}
	if inst.State != model.InstanceStateStopped || inst.HasAddress() {
		t.Errorf("unexpected snapshot %+v", inst)
	}
}

func TestDescribeInstance_OtherStatesNormalizeToUnknown(t *testing.T) {
	for _, state := range []types.InstanceStateName{types.InstanceStateNameShuttingDown, types.InstanceStateNameTerminated} {
		api := &fakeAPI{describeOut: describeOutput(state, nil)}
		inst, err := testControlPlane(api, nil).DescribeInstance(context.Background())
		if err != nil {
			t.Fatalf("DescribeInstance: %v", err)
		}
		if inst.State != model.InstanceStateUnknown {
			t.Errorf("%s: state = %s, want unknown", state, inst.State)
		}
		if inst.RawState != string(state) {
			t.Errorf("%s: raw state = %q", state, inst.RawState)
		}
	}
}

func TestDescribeInstance_NoReservations_NotFound(t *testing.T) {
	api := &fakeAPI{describeOut: &awsec2.DescribeInstancesOutput{}}
	_, err := testControlPlane(api, nil).DescribeInstance(context.Background())
	if !errors.Is(err, model.ErrInstanceNotFound) {
		t.Errorf("expected ErrInstanceNotFound, got %v", err)
	}
}

func TestDescribeInstance_EmptyReservation_NotFound(t *testing.T) {
	api := &fakeAPI{describeOut: &awsec2.DescribeInstancesOutput{
		Reservations: []types.Reservation{{}},
	}}
	_, err := testControlPlane(api, nil).DescribeInstance(context.Background())
	if !errors.Is(err, model.ErrInstanceNotFound) {
		t.Errorf("expected ErrInstanceNotFound, got %v", err)
	}
}

func TestDescribeInstance_APIError_Wrapped(t *testing.T) {
	cause := errors.New("UnauthorizedOperation")
	api := &fakeAPI{describeErr: cause}
	_, err := testControlPlane(api, nil).DescribeInstance(context.Background())
	if !errors.Is(err, cause) {
		t.Errorf("expected wrapped cause, got %v", err)
	}
	if errors.Is(err, model.ErrInstanceNotFound) {
		t.Error("api error must not be reported as not found")
	}
}

// --- Start / Stop ---

func TestStartInstance(t *testing.T) {
	api := &fakeAPI{}
	if err := testControlPlane(api, nil).StartInstance(context.Background()); err != nil {
		t.Fatalf("StartInstance: %v", err)
	}
	if len(api.startIDs) != 1 || api.startIDs[0] != testInstanceID {
		t.Errorf("start ids = %v", api.startIDs)
	}
}

func TestStopInstance_Error(t *testing.T) {
	api := &fakeAPI{stopErr: errors.New("IncorrectInstanceState")}
	err := testControlPlane(api, nil).StopInstance(context.Background())
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if len(api.stopIDs) != 1 {
		t.Errorf("expected exactly one stop call, got %d", len(api.stopIDs))
	}
}

// --- metrics ---

func TestControlPlane_RecordsMetrics(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	api := &fakeAPI{
		describeOut: describeOutput(types.InstanceStateNameStopped, nil),
		startErr:    errors.New("boom"),
	}
	cp := testControlPlane(api, m)

	_, _ = cp.DescribeInstance(context.Background())
	_ = cp.StartInstance(context.Background())

	if got := testutil.ToFloat64(m.ControlPlaneCounter().WithLabelValues("describe", "ok")); got != 1 {
		t.Errorf("describe ok = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.ControlPlaneCounter().WithLabelValues("start", "error")); got != 1 {
		t.Errorf("start error = %v, want 1", got)
	}
}

func TestHealthCheck(t *testing.T) {
	api := &fakeAPI{describeOut: &awsec2.DescribeInstancesOutput{}}
	if err := testControlPlane(api, nil).HealthCheck(context.Background()); err == nil {
		t.Error("expected health check to fail when instance is missing")
	}
	api.describeOut = describeOutput(types.InstanceStateNameRunning, nil)
	if err := testControlPlane(api, nil).HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck: %v", err)
	}
}

func TestNewControlPlane_DefaultTimeout(t *testing.T) {
	cp := NewControlPlane(&fakeAPI{}, Config{InstanceID: testInstanceID}, nil)
	if cp.cfg.CallTimeout != 10*time.Second {
		t.Errorf("call timeout = %v, want 10s", cp.cfg.CallTimeout)
	}
}
