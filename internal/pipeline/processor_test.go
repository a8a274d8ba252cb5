package pipeline

import (
	"context"
	"strings"
	"testing"

	"pitwall-go/internal/model"
	"pitwall-go/pkg/tasks"
)

type fakeCatalogRepo struct {
	raceIDs []string
}

func (f *fakeCatalogRepo) FindAllDrivers() ([]model.Driver, error) { return nil, nil }
func (f *fakeCatalogRepo) FindAllRaces() ([]model.Race, error)     { return nil, nil }
func (f *fakeCatalogRepo) CountDrivers() (int64, error)            { return 0, nil }
func (f *fakeCatalogRepo) CreateDrivers(drivers []model.Driver) error { return nil }
func (f *fakeCatalogRepo) CreateRaces(races []model.Race) error       { return nil }

func (f *fakeCatalogRepo) FindRaceByID(raceID string) (*model.Race, error) {
	for _, id := range f.raceIDs {
		if id == raceID {
			return &model.Race{RaceID: id}, nil
		}
	}
	return nil, nil
}

type fakeFeatureRepo struct {
	upserted []model.FeatureRow
}

func (f *fakeFeatureRepo) FindByRace(raceID string) ([]model.FeatureRow, error) { return nil, nil }
func (f *fakeFeatureRepo) FindByRaceAndDriver(raceID, driverID string) (*model.FeatureRow, error) {
	return nil, nil
}
func (f *fakeFeatureRepo) FindCoefficients(modelVersion string) ([]model.Coefficient, error) {
	return nil, nil
}
func (f *fakeFeatureRepo) CountCoefficients(modelVersion string) (int64, error) { return 0, nil }
func (f *fakeFeatureRepo) CreateFeatureRows(rows []model.FeatureRow) error      { return nil }
func (f *fakeFeatureRepo) CreateCoefficients(coeffs []model.Coefficient) error  { return nil }

func (f *fakeFeatureRepo) UpsertFeatureRow(row *model.FeatureRow) error {
	f.upserted = append(f.upserted, *row)
	return nil
}

func validTask() tasks.FeatureRowTask {
	return tasks.FeatureRowTask{
		RaceID:             "2024_gbr",
		DriverID:           "VER",
		QualifyingPosition: 1,
		LongRunPaceDelta:   -0.2,
		ConstructorForm:    0.8,
		DriverForm:         0.6,
		CircuitEffect:      0.1,
		WeatherRisk:        0.3,
	}
}

func TestProcessValidTask(t *testing.T) {
	featureRepo := &fakeFeatureRepo{}
	p := NewFeatureProcessor(&fakeCatalogRepo{raceIDs: []string{"2024_gbr"}}, featureRepo)

	if err := p.Process(context.Background(), validTask()); err != nil {
		t.Fatalf("Process 失败: %v", err)
	}
	if len(featureRepo.upserted) != 1 {
		t.Fatalf("upserted = %d, want 1", len(featureRepo.upserted))
	}
	row := featureRepo.upserted[0]
	if row.RaceID != "2024_gbr" || row.DriverID != "VER" || row.QualifyingPosition != 1 {
		t.Errorf("落库内容错误: %+v", row)
	}
}

func TestProcessRejectsBadDriverCode(t *testing.T) {
	featureRepo := &fakeFeatureRepo{}
	p := NewFeatureProcessor(&fakeCatalogRepo{raceIDs: []string{"2024_gbr"}}, featureRepo)

	for _, code := range []string{"", "ver", "VERSTAPPEN", "V1R", "VE"} {
		task := validTask()
		task.DriverID = code
		err := p.Process(context.Background(), task)
		if err == nil || !strings.Contains(err.Error(), "非法的车手缩写") {
			t.Errorf("DriverID=%q: err = %v", code, err)
		}
	}
	if len(featureRepo.upserted) != 0 {
		t.Errorf("校验失败不应落库: %v", featureRepo.upserted)
	}
}

func TestProcessRejectsUnknownRace(t *testing.T) {
	p := NewFeatureProcessor(&fakeCatalogRepo{}, &fakeFeatureRepo{})

	err := p.Process(context.Background(), validTask())
	if err == nil || !strings.Contains(err.Error(), "不在目录中") {
		t.Errorf("err = %v", err)
	}
}

func TestProcessRejectsQualifyingOutOfRange(t *testing.T) {
	p := NewFeatureProcessor(&fakeCatalogRepo{raceIDs: []string{"2024_gbr"}}, &fakeFeatureRepo{})

	for _, pos := range []float64{0, -1, 21, 99} {
		task := validTask()
		task.QualifyingPosition = pos
		err := p.Process(context.Background(), task)
		if err == nil || !strings.Contains(err.Error(), "排位赛名次超出范围") {
			t.Errorf("QualifyingPosition=%v: err = %v", pos, err)
		}
	}
}
