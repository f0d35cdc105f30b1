package scriptgen

import (
	"fmt"
	"strings"

	"reporeel/internal/analysis"
)

// TemplateScript produces a deterministic narration script when no chat
// provider is reachable. It keeps the same timing-marker structure the
// providers are asked for so the downstream segmenter behaves identically.
func TemplateScript(report *analysis.Report) string {
	repoName := report.RepositoryName
	if repoName == "" {
		repoName = "this repository"
	}
	technologies := "modern technologies"
	if len(report.Technologies) > 0 {
		technologies = strings.Join(limitSlice(report.Technologies, 6), ", ")
	}

	return fmt.Sprintf(`[0:00 - 0:30] Introduction
Welcome to our comprehensive overview of %s! Today, we're diving into an exciting software project that demonstrates excellent development practices and innovative solutions.

[0:30 - 2:00] Main Features and Functionality
This repository showcases a well-structured codebase built with %s. The project includes comprehensive functionality with user-friendly interfaces and robust error handling.

Key highlights of this project include:
- Clean, maintainable code architecture
- Modern development practices and patterns
- Comprehensive documentation and testing
- Scalable and efficient implementation
- Integration with popular frameworks and libraries

[2:00 - 2:30] Technical Implementation
The technical implementation demonstrates attention to detail and follows industry best practices. The development team has created something that's both functionally excellent and maintainable for future development.

The project leverages %s to provide reliable and performant solutions. The codebase is well-organized with clear separation of concerns and proper abstraction layers.

[2:30 - 3:00] Conclusion
This project represents a solid example of modern software development, combining technical excellence with practical usability. Whether you're looking to learn from the implementation or contribute to the project, this repository offers valuable insights into effective software engineering.

Thank you for watching this repository overview! Feel free to explore the code and contribute to this exciting project.`,
		repoName, technologies, technologies)
}
